package commands

import (
	"errors"
	"fmt"
	"folio/internal/auth"
	"folio/internal/models"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
)

// PrintError writes err for a person to read, one message per error kind
func PrintError(w io.Writer, err error) {
	red := color.New(color.FgRed)

	var redirect *auth.RedirectError
	var verr *models.ValidationError
	var apiErr *models.APIError

	switch {
	case errors.As(err, &redirect):
		red.Fprintf(w, "You are not logged in. Run 'folio login', then retry to open %s.\n", redirect.From)
	case errors.As(err, &verr):
		red.Fprintln(w, "Some fields need attention:")
		printFields(w, verr.Fields)
	case errors.Is(err, models.ErrNotConfirmed):
		fmt.Fprintln(w, "Cancelled.")
	case errors.Is(err, models.ErrInvalidCredentials):
		red.Fprintln(w, messageOf(err, "Login failed. Please try again."))
	case errors.Is(err, models.ErrNetwork):
		red.Fprintf(w, "Could not reach the server: %s\n", messageOf(err, err.Error()))
		fmt.Fprintln(w, "Check the server URL with 'folio config get server_url' and try again.")
	case errors.Is(err, models.ErrAuth):
		red.Fprintf(w, "Your session was rejected: %s\n", messageOf(err, "please log in again"))
		fmt.Fprintln(w, "Run 'folio login' to start a new session.")
	case errors.Is(err, models.ErrNotFound):
		red.Fprintln(w, "Not found.")
	case errors.Is(err, models.ErrConflict) && errors.As(err, &apiErr):
		red.Fprintf(w, "The server rejected the change: %s\n", messageOf(err, "invalid data"))
		if len(apiErr.Fields) > 0 {
			fields := make(map[string]string, len(apiErr.Fields))
			for name, msgs := range apiErr.Fields {
				fields[name] = strings.Join(msgs, " ")
			}
			printFields(w, fields)
		}
	case errors.Is(err, models.ErrMalformedResponse):
		red.Fprintf(w, "The server sent an unexpected response: %v\n", err)
	default:
		red.Fprintf(w, "Error: %v\n", err)
	}
}

// messageOf returns the backend message carried by err, or fallback
func messageOf(err error, fallback string) string {
	var apiErr *models.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func printFields(w io.Writer, fields map[string]string) {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %s\n", name, fields[name])
	}
}
