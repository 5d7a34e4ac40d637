package transport

import "fmt"

// TransportError reports a request that could not be completed or a response
// body that could not be parsed.
type TransportError struct {
	Op  string // "post", "read", "decode"
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
