// Package compileinfo reports the build metadata stamped into a binary, so
// that analysis output can be traced back to the exact commit that produced
// it.
package compileinfo

import (
	"fmt"
	"os"
	"runtime/debug"
)

// Info describes how the running binary was built.
type Info struct {
	Path       string
	GoVersion  string
	Commit     string
	CommitTime string
	Dirty      bool
}

func (c Info) String() string {
	commit := c.Commit
	if commit == "" {
		commit = "(unknown commit)"
	}
	if c.Dirty {
		commit += "+dirty"
	}

	return fmt.Sprintf("%s built with %s from %s (%s)", c.Path, c.GoVersion, commit, c.CommitTime)
}

// Get reads the build info embedded by the Go toolchain. Fields stay empty
// when the binary was built outside version control.
func Get() Info {
	out := Info{}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.Path = bi.Path
	out.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Dirty = s.Value == "true"
		}
	}

	return out
}

// PrintToStdErr writes the build description to standard error.
func PrintToStdErr() {
	fmt.Fprintln(os.Stderr, Get())
}
