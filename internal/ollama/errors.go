package ollama

import "net/http"

// upstreamError signals a failed call to the inference server so the HTTP
// layer can return 502 Bad Gateway instead of 500.
type upstreamError struct{ msg string }

func (e upstreamError) Error() string   { return e.msg }
func (e upstreamError) StatusCode() int { return http.StatusBadGateway }

// ErrUpstream constructs an upstreamError.
func ErrUpstream(msg string) error { return upstreamError{msg: msg} }

// IsUpstream reports whether err indicates an inference-server failure.
func IsUpstream(err error) bool {
	_, ok := err.(upstreamError)
	return ok
}
