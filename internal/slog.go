package internal

import (
	"fmt"
	"log/slog"
	"os"
)

// InitSlog installs a JSON logger on stderr as the slog default. level is
// one of DEBUG, INFO, WARN or ERROR, optionally with an offset such as
// "INFO+2". An invalid level falls back to INFO.
func InitSlog(level string) {
	var programLevel slog.Level
	if err := (&programLevel).UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %s: %v, using info\n", level, err)
		programLevel = slog.LevelInfo
	}

	leveler := &slog.LevelVar{}
	leveler.Set(programLevel)

	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		AddSource: true,
		Level:     leveler,
	})
	slog.SetDefault(slog.New(h))
}
