package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/samvad-hq/mini-postman/internal/dispatcher"
	"github.com/samvad-hq/mini-postman/internal/domain"
	"github.com/samvad-hq/mini-postman/internal/presenter"
)

func TestNextFocusWraps(t *testing.T) {
	if got := nextFocus(viewResponse, 1); got != viewMethod {
		t.Fatalf("expected wrap to method, got %s", got)
	}
	if got := nextFocus(viewMethod, -1); got != viewResponse {
		t.Fatalf("expected wrap to response, got %s", got)
	}
	if got := nextFocus(viewURL, 1); got != viewHeaders {
		t.Fatalf("expected headers after url, got %s", got)
	}
	if got := nextFocus("unknown", 1); got != viewURL {
		t.Fatalf("unknown view should start from the first pane, got %s", got)
	}
}

func TestColorizeMethod(t *testing.T) {
	cases := map[domain.Method]string{
		domain.MethodGet:    colorGreen,
		domain.MethodPost:   colorBlue,
		domain.MethodPut:    colorYellow,
		domain.MethodDelete: colorRed,
	}
	for m, color := range cases {
		got := colorizeMethod(m)
		if !strings.HasPrefix(got, color+m.String()) {
			t.Fatalf("colorizeMethod(%s) = %q", m, got)
		}
	}
}

func TestWriteHeaderIndicator(t *testing.T) {
	var buf bytes.Buffer
	writeHeader(&buf, false, "https://proxy.example.com")
	if !strings.Contains(buf.String(), "Not logged in") {
		t.Fatalf("expected logged-out indicator, got %q", buf.String())
	}

	buf.Reset()
	writeHeader(&buf, true, "https://proxy.example.com")
	out := buf.String()
	if !strings.Contains(out, colorGreen+"Logged in") || strings.Contains(out, "Not logged in") {
		t.Fatalf("expected logged-in indicator, got %q", out)
	}
}

func TestWriteResponseBadgeColors(t *testing.T) {
	cases := []struct {
		code  int
		class presenter.BadgeClass
		color string
	}{
		{200, presenter.ClassSuccess, colorGreen},
		{302, presenter.ClassWarning, colorYellow},
		{500, presenter.ClassError, colorRed},
	}
	for _, tc := range cases {
		code := tc.code
		var buf bytes.Buffer
		writeResponse(&buf, presenter.View{StatusCode: &code, Badge: tc.class, Body: "{}"})
		if !strings.HasPrefix(buf.String(), tc.color+"Status: ") {
			t.Fatalf("status %d rendered as %q", tc.code, buf.String())
		}
		if !strings.HasSuffix(buf.String(), "{}") {
			t.Fatalf("body missing for status %d", tc.code)
		}
	}
}

func TestWriteResponseWithoutStatus(t *testing.T) {
	var buf bytes.Buffer
	writeResponse(&buf, presenter.View{Body: "{\n  \"data\": 1\n}"})
	if strings.Contains(buf.String(), "Status") {
		t.Fatalf("no badge expected, got %q", buf.String())
	}
	if buf.String() != "{\n  \"data\": 1\n}" {
		t.Fatalf("unexpected body %q", buf.String())
	}
}

func TestWriteResponseSkipsFailures(t *testing.T) {
	var buf bytes.Buffer
	writeResponse(&buf, presenter.View{Failed: true, ErrorMessage: dispatcher.MsgDispatchFailed})
	if buf.Len() != 0 {
		t.Fatalf("failure should not render a response, got %q", buf.String())
	}
}

func TestFooterText(t *testing.T) {
	if got := footerText(true, nil); !strings.Contains(got, "Sending") {
		t.Fatalf("busy footer = %q", got)
	}
	failed := presenter.View{Failed: true, ErrorMessage: dispatcher.MsgInvalidInput}
	if got := footerText(false, &failed); got != colorRed+dispatcher.MsgInvalidInput+colorReset {
		t.Fatalf("error footer = %q", got)
	}
	if got := footerText(false, &presenter.View{}); !strings.Contains(got, "ctrl+r") {
		t.Fatalf("idle footer = %q", got)
	}
}
