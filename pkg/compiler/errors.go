package compiler

import "fmt"

// NamingError reports a tool or parameter name that does not satisfy the
// schema naming rule. It is fatal for the package being compiled.
type NamingError struct {
	Name string
	File string
	Line int
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("%s:%d: invalid tool name %q: must match %s", e.File, e.Line, e.Name, namePattern)
}

// DuplicateNameError reports two procedures sharing a name within one
// package. The package's compilation aborts and no partial schema is
// written.
type DuplicateNameError struct {
	Name   string
	First  string // file:line of the first declaration
	Second string // file:line of the colliding declaration
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate procedure name %q declared at %s and %s", e.Name, e.First, e.Second)
}

// TimeoutError reports that the wall-clock ceiling was exceeded while
// compiling a package.
type TimeoutError struct {
	Dir string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("compilation of %s exceeded the wall-clock ceiling", e.Dir)
}
