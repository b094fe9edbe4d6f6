package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/samvad-hq/mini-postman/internal/domain"
	"github.com/samvad-hq/mini-postman/internal/presenter"
)

const (
	colorDim    = "\033[90m"
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorBold   = "\033[1m"
)

const (
	viewHeader   = "header"
	viewMethod   = "method"
	viewURL      = "url"
	viewHeaders  = "headers"
	viewBody     = "body"
	viewResponse = "response"
	viewFooter   = "footer"
)

// focusOrder is the tab order of the interactive panes.
var focusOrder = []string{viewMethod, viewURL, viewHeaders, viewBody, viewResponse}

func nextFocus(current string, delta int) string {
	idx := 0
	for i, name := range focusOrder {
		if name == current {
			idx = i
			break
		}
	}
	n := len(focusOrder)
	return focusOrder[((idx+delta)%n+n)%n]
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

func colorizeMethod(m domain.Method) string {
	var color string
	switch m {
	case domain.MethodGet:
		color = colorGreen
	case domain.MethodPost:
		color = colorBlue
	case domain.MethodPut:
		color = colorYellow
	case domain.MethodDelete:
		color = colorRed
	default:
		color = colorReset
	}
	return color + padRight(m.String(), 6) + colorReset
}

func badgeColor(class presenter.BadgeClass) string {
	switch class {
	case presenter.ClassSuccess:
		return colorGreen
	case presenter.ClassError:
		return colorRed
	default:
		return colorYellow
	}
}

// writeHeader renders the title line with the login indicator.
func writeHeader(w io.Writer, loggedIn bool, proxyURL string) {
	indicator := colorDim + "Not logged in" + colorReset
	if loggedIn {
		indicator = colorGreen + "Logged in" + colorReset
	}
	fmt.Fprintf(w, "%sMini Postman%s  %s  %svia %s%s", colorBold, colorReset, indicator, colorDim, proxyURL, colorReset)
}

// writeResponse renders a successful view. Failed views render nothing here;
// their message goes to the footer.
func writeResponse(w io.Writer, v presenter.View) {
	if v.Failed {
		return
	}
	if v.HasBadge() {
		fmt.Fprintf(w, "%sStatus: %d%s\n", badgeColor(v.Badge), *v.StatusCode, colorReset)
	}
	if v.Preview != "" {
		fmt.Fprintf(w, "%stitle: %s%s\n", colorDim, v.Preview, colorReset)
	}
	if v.HasBadge() || v.Preview != "" {
		fmt.Fprintln(w)
	}
	fmt.Fprint(w, v.Body)
}

// footerText picks the single footer line.
func footerText(busy bool, last *presenter.View) string {
	switch {
	case busy:
		return colorYellow + "Sending..." + colorReset
	case last != nil && last.Failed:
		return colorRed + last.ErrorMessage + colorReset
	default:
		return "tab: next pane   space: cycle method   ctrl+r: send   ctrl+c: quit"
	}
}
