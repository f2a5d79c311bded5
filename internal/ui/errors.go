package ui

import (
	"errors"
	"folio/internal/models"
)

// describeError turns an error kind into the banner shown under the gallery
func describeError(err error) string {
	switch {
	case errors.Is(err, models.ErrNetwork):
		return "Could not reach the server. Press r to retry."
	case errors.Is(err, models.ErrNotFound):
		return "Nothing found here."
	case errors.Is(err, models.ErrMalformedResponse):
		return "The server sent data the gallery does not understand."
	default:
		return err.Error()
	}
}
