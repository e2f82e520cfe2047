// Package compileinfo reports which source revision a binary was built from.
package compileinfo

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime/debug"
)

type CompileInfo struct {
	Binary     string // Last element of the main package path
	Module     string
	Version    string
	GoVersion  string
	Commit     string
	CommitTime string
	Modified   bool
}

func (c CompileInfo) String() string {
	mod := ""
	if c.Modified {
		mod = " (with uncommitted changes)"
	}

	version := ""
	if c.Version != "" && c.Version != "(devel)" {
		version = " " + c.Version
	}

	return fmt.Sprintf("%s: %s%s built with %s from commit %s at %s%s", c.Binary, c.Module, version, c.GoVersion, c.Short(), c.CommitTime, mod)
}

// Short is the abbreviated commit hash, or "unknown".
func (c CompileInfo) Short() string {
	switch {
	case c.Commit == "":
		return "unknown"
	case len(c.Commit) > 12:
		return c.Commit[:12]
	}

	return c.Commit
}

func Get() CompileInfo {
	out := CompileInfo{}

	z, ok := debug.ReadBuildInfo()
	if !ok {
		return out
	}

	out.GoVersion = z.GoVersion
	out.Binary = path.Base(z.Path)
	out.Module = z.Main.Path
	out.Version = z.Main.Version
	for _, s := range z.Settings {
		switch s.Key {
		case "vcs.revision":
			out.Commit = s.Value
		case "vcs.time":
			out.CommitTime = s.Value
		case "vcs.modified":
			out.Modified = s.Value == "true"
		}
	}

	return out
}

func Fprint(w io.Writer) {
	fmt.Fprintln(w, Get())
}

func PrintToStdErr() {
	Fprint(os.Stderr)
}
