package port

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by adapters when the upstream reports a missing resource.
var ErrNotFound = errors.New("upstream resource not found")

// UpstreamError carries a non-success upstream response verbatim.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Body != "" && e.Err != nil:
		return fmt.Sprintf("upstream status %d: %s: %v", e.StatusCode, e.Body, e.Err)
	case e.Body != "":
		return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("upstream status %d: %v", e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("upstream status %d", e.StatusCode)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// AsUpstream extracts the status and body of an *UpstreamError in err's chain.
func AsUpstream(err error) (status int, body string, ok bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.StatusCode, ue.Body, true
	}
	return 0, "", false
}
