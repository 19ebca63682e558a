package server

import "net/http"

// ansi is a terminal escape sequence used to colour DEV log output.
type ansi string

const (
	ansiReset  ansi = "\033[0m"
	ansiRed    ansi = "\033[31m"
	ansiGreen  ansi = "\033[32m"
	ansiYellow ansi = "\033[33m"
	ansiBlue   ansi = "\033[34m"
	ansiGray   ansi = "\033[90m"
)

func (c ansi) paint(s string) string {
	return string(c) + s + string(ansiReset)
}

// methodColor is the colour a route method is listed with at startup.
func methodColor(method string) ansi {
	switch method {
	case http.MethodGet:
		return ansiGreen
	case http.MethodPost:
		return ansiBlue
	case http.MethodDelete:
		return ansiRed
	default:
		return ansiGray
	}
}

// statusColor is the colour a response status is logged with.
func statusColor(status int) ansi {
	switch {
	case status >= http.StatusInternalServerError:
		return ansiRed
	case status >= http.StatusBadRequest:
		return ansiYellow
	default:
		return ansiGreen
	}
}
