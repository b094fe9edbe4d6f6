package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Domain contains core models shared by the dispatcher, presenter and UI.

// Method is one of the request methods the composer offers.
type Method string

const (
	MethodGet    Method = "GET"
	MethodPost   Method = "POST"
	MethodPut    Method = "PUT"
	MethodDelete Method = "DELETE"
)

// Methods lists the selectable methods in selector order.
var Methods = []Method{MethodGet, MethodPost, MethodPut, MethodDelete}

// ParseMethod normalizes s and rejects methods outside the selector.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Methods {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unsupported method %q", s)
}

// Next returns the method following m in selector order, wrapping around.
func (m Method) Next() Method {
	for i, known := range Methods {
		if m == known {
			return Methods[(i+1)%len(Methods)]
		}
	}
	return MethodGet
}

func (m Method) String() string { return string(m) }

// RequestDraft is the user-composed, not-yet-sent request.
type RequestDraft struct {
	URL        string
	Method     Method
	RawHeaders string
	RawBody    string
}

// NewDraft returns a draft with the composer defaults.
func NewDraft() RequestDraft {
	return RequestDraft{
		Method:     MethodGet,
		RawHeaders: "{}",
		RawBody:    "{}",
	}
}

// ProxyRequest is the envelope posted to the proxy endpoint.
type ProxyRequest struct {
	URL     string         `json:"url"`
	Method  string         `json:"method"`
	Headers map[string]any `json:"headers"`
	Body    map[string]any `json:"body"`
}

// DispatchResult is the outcome of a successful dispatch.
type DispatchResult struct {
	// StatusCode is nil when the proxy response carries no integer status.
	StatusCode *int
	// Data is the decoded `data` field of the proxy response.
	Data any
	// Raw is the proxy response body as received.
	Raw json.RawMessage
}

// HasStatus reports whether a status code is available for the badge.
func (r DispatchResult) HasStatus() bool { return r.StatusCode != nil }
