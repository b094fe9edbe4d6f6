package dispatcher

import "errors"

// User-facing messages for the two failure kinds.
const (
	MsgInvalidInput   = "Invalid JSON in headers or body"
	MsgDispatchFailed = "Failed to send request"
)

// ErrDispatchInFlight is returned when Send is called while another dispatch
// on the same Service has not finished.
var ErrDispatchInFlight = errors.New("a request is already in flight")

// InvalidInputError reports malformed header or body text. It is raised
// before any network activity.
type InvalidInputError struct {
	Err error
}

func (e *InvalidInputError) Error() string { return MsgInvalidInput }

// Unwrap returns the underlying parse error.
func (e *InvalidInputError) Unwrap() error { return e.Err }

// DispatchError reports a transport failure or an unusable proxy response.
type DispatchError struct {
	Err error
}

func (e *DispatchError) Error() string { return MsgDispatchFailed }

// Unwrap returns the underlying transport or decode error.
func (e *DispatchError) Unwrap() error { return e.Err }
