package presenter

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/samvad-hq/mini-postman/internal/dispatcher"
	"github.com/samvad-hq/mini-postman/internal/domain"
)

// BadgeClass is the qualitative colour class of a status code.
type BadgeClass string

const (
	ClassSuccess BadgeClass = "success"
	ClassWarning BadgeClass = "warning"
	ClassError   BadgeClass = "error"
)

// Classify maps [200,300) to success, [400,∞) to error and everything else to warning.
func Classify(code int) BadgeClass {
	switch {
	case code >= 200 && code < 300:
		return ClassSuccess
	case code >= 400:
		return ClassError
	default:
		return ClassWarning
	}
}

// View is one renderable outcome. A failed view carries only ErrorMessage.
type View struct {
	Failed       bool
	ErrorMessage string

	StatusCode *int
	Badge      BadgeClass
	Body       string
	// Preview is the <title> of an HTML payload, if any.
	Preview string
}

// HasBadge reports whether a status badge should be drawn.
func (v View) HasBadge() bool { return !v.Failed && v.StatusCode != nil }

// PrettyPrint re-indents a JSON document with two spaces, keeping field order.
// Formatting an already formatted document yields the same text.
func PrettyPrint(raw []byte) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, raw); err != nil {
		return "", fmt.Errorf("compact response: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return "", fmt.Errorf("indent response: %w", err)
	}
	return out.String(), nil
}

// Present maps the outcome of a dispatch onto a View.
func Present(result domain.DispatchResult, err error) View {
	if err != nil {
		return Failure(err)
	}

	body, perr := PrettyPrint(result.Raw)
	if perr != nil {
		return Failure(&dispatcher.DispatchError{Err: perr})
	}

	v := View{
		StatusCode: result.StatusCode,
		Body:       body,
	}
	if result.StatusCode != nil {
		v.Badge = Classify(*result.StatusCode)
	}
	if s, ok := result.Data.(string); ok {
		v.Preview = htmlTitle(s)
	}
	return v
}

// Failure builds the single-line error view for err.
func Failure(err error) View {
	return View{Failed: true, ErrorMessage: errorMessage(err)}
}

func errorMessage(err error) string {
	var invalid *dispatcher.InvalidInputError
	var dispatchErr *dispatcher.DispatchError
	switch {
	case errors.As(err, &invalid):
		return dispatcher.MsgInvalidInput
	case errors.As(err, &dispatchErr):
		return dispatcher.MsgDispatchFailed
	case errors.Is(err, dispatcher.ErrDispatchInFlight):
		return "A request is already in flight"
	default:
		return dispatcher.MsgDispatchFailed
	}
}
