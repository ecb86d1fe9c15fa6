package transport

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Location is a parsed root argument: a local path, or a path on a remote
// host reached over SSH.
type Location struct {
	Host string
	User string
	Path string
}

// IsRemote returns true if the location refers to a remote host.
func (l Location) IsRemote() bool {
	return l.Host != ""
}

func (l Location) String() string {
	if !l.IsRemote() {
		return l.Path
	}
	if l.User != "" {
		return fmt.Sprintf("%s@%s:%s", l.User, l.Host, l.Path)
	}
	return fmt.Sprintf("%s:%s", l.Host, l.Path)
}

// ParseLocation parses a CLI argument into a Location.
//
// Supported formats:
//   - /absolute/path, relative/path, ./path  → local
//   - host:path                             → remote (current user)
//   - user@host:path                        → remote
//
// A path containing ":" is only remote if the part before the colon has no
// path separator, so "/foo:bar" and "dir/file:x" stay local. An empty remote
// path means the remote home directory (".").
func ParseLocation(arg string) Location {
	if filepath.IsAbs(arg) || strings.HasPrefix(arg, "./") || strings.HasPrefix(arg, "../") {
		return Location{Path: arg}
	}

	hostPart, pathPart, found := strings.Cut(arg, ":")
	if !found || hostPart == "" {
		return Location{Path: arg}
	}
	if strings.ContainsRune(hostPart, filepath.Separator) || strings.ContainsRune(hostPart, '/') {
		return Location{Path: arg}
	}

	var userName, host string
	if at := strings.LastIndexByte(hostPart, '@'); at >= 0 {
		userName, host = hostPart[:at], hostPart[at+1:]
	} else {
		host = hostPart
	}
	if host == "" {
		return Location{Path: arg}
	}
	if pathPart == "" {
		pathPart = "."
	}

	return Location{Host: host, User: userName, Path: pathPart}
}
