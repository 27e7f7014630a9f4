package exporting

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrSizeExceeded is returned by the data writer once the configured size cap
// is reached. The run ends, but the data already written is valid.
var ErrSizeExceeded = errors.New("data file size limit reached")

// FormatError describes a structural problem in a data file.
type FormatError struct {
	Path   string
	Line   int
	Token  string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s:%d: %s (%q)", e.Path, e.Line, e.Reason, e.Token)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Reason)
}
