// Package openxiino contains the version number and protocol constants of OpenXiino.
package openxiino

// Version is the current version of OpenXiino.
//
// This variable is set at build time using the -X linker flag. If not set,
// it defaults to "devel".
var Version = "devel"

// UserAgent is sent with every outbound fetch so site operators can tell
// who is crawling them.
const UserAgent = "OpenXiino/1.0 (http://github.com/nicl83/openxiino)"

// DeviceInfoHost is the pseudo host Xiino requests to show what it reported
// about itself. It is never fetched.
const DeviceInfoHost = "deviceinfo"

// Pseudo hosts for the built-in information pages.
const (
	AboutHost     = "about"
	MoreInfoHost  = "about2"
	GitHubHost    = "github"
	RepositoryURL = "http://github.com/nicl83/openxiino"
)

// PathSegments is how many tokens Xiino puts in every request path:
// /<colour depth>/<screen width>/<unused>/<text encoding>/?<target URL>
// Any token may be empty.
const PathSegments = 4
