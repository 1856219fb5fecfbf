package hydrate

import (
	"fmt"

	"github.com/phobologic/autoinstall/internal/model"
)

// IOError is an unexpected filesystem failure in a function directory.
// It aborts the whole run.
type IOError struct {
	Dir string
	Op  string
	Err error
}

func (e *IOError) Error() string {
	if e.Dir == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Dir, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// FailureError is returned when at least one file could not be parsed.
// No manifest is written when it is returned.
type FailureError struct {
	Failures []model.ScanFailure
}

func (e *FailureError) Error() string {
	if len(e.Failures) == 1 {
		return "could not determine dependencies: 1 file failed to parse"
	}
	return fmt.Sprintf("could not determine dependencies: %d files failed to parse", len(e.Failures))
}
