// Package compileinfoprint is imported for its side effect: every binary that
// imports it prints its build provenance to STDERR on startup.
package compileinfoprint

import "github.com/carbocation/esetclust/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
