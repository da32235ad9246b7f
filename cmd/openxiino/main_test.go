package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSetupListenerTCP(t *testing.T) {
	ln, url := setupListener("tcp", "127.0.0.1:0")
	defer ln.Close()

	if url != "http://127.0.0.1:0" {
		t.Errorf("wanted formatted address http://127.0.0.1:0, got: %s", url)
	}
}

func TestSetupListenerUnix(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "openxiino.sock")

	ln, url := setupListener("unix", sock)
	defer ln.Close()

	if url != "unix:"+sock {
		t.Errorf("wanted formatted address unix:%s, got: %s", sock, url)
	}

	st, err := os.Stat(sock)
	if err != nil {
		t.Fatal(err)
	}

	if got := st.Mode().Perm(); got != 0o770 {
		t.Errorf("wanted socket mode 0770, got: %o", got)
	}
}
