package web

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/nicl83/openxiino"
	"github.com/nicl83/openxiino/lib/device"
)

// ErrorPage is shown instead of a proxied page when fetching or parsing it
// failed. msg is escaped.
func ErrorPage(msg string) templ.Component {
	return errorPage(msg)
}

// StrangeRequest answers anything that isn't shaped like a Xiino request.
func StrangeRequest() templ.Component {
	return strangeRequest()
}

// DeviceInfo describes what the device told us about itself, along with the
// headers it sent.
func DeviceInfo(caps device.Capabilities, target string, header http.Header) templ.Component {
	return deviceInfo(caps, target, formatHeader(header))
}

func About() templ.Component {
	return about(openxiino.Version)
}

func MoreInfo() templ.Component {
	return moreInfo()
}

// GitHub points at the source repository.
func GitHub() templ.Component {
	return github(openxiino.RepositoryURL)
}

func formatHeader(header http.Header) string {
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		for _, v := range header[k] {
			fmt.Fprintf(&sb, "%s: %s\n", k, v)
		}
	}
	return sb.String()
}

func uintString(n uint32) string {
	return strconv.FormatUint(uint64(n), 10)
}
