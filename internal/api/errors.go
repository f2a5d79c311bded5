package api

import (
	"encoding/json"
	"folio/internal/models"
	"net/http"
	"strings"
)

// translateStatus maps a non-2xx response onto an error kind, keeping the
// backend's message and any field-level messages.
func translateStatus(status int, body []byte) error {
	apiErr := &models.APIError{Status: status}

	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		apiErr.Kind = models.ErrAuth
	case status == http.StatusNotFound:
		apiErr.Kind = models.ErrNotFound
	case status == http.StatusBadRequest, status == http.StatusConflict, status == http.StatusUnprocessableEntity:
		apiErr.Kind = models.ErrConflict
	case status >= 500:
		apiErr.Kind = models.ErrNetwork
	default:
		apiErr.Kind = models.ErrConflict
	}

	apiErr.Message, apiErr.Fields = parseErrorBody(body)
	return apiErr
}

// parseErrorBody understands the two shapes the backend produces:
// {"error": "..."} / {"detail": "..."} and {"field": ["msg", ...]}.
func parseErrorBody(body []byte) (string, map[string][]string) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "", nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		if len(trimmed) > 200 {
			trimmed = trimmed[:200] + "..."
		}
		return trimmed, nil
	}

	var message string
	fields := make(map[string][]string)

	for key, value := range raw {
		var text string
		if err := json.Unmarshal(value, &text); err == nil {
			if key == "error" || key == "detail" || key == "message" {
				message = text
			} else {
				fields[key] = []string{text}
			}
			continue
		}

		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			if key == "non_field_errors" {
				message = strings.Join(list, " ")
			} else {
				fields[key] = list
			}
		}
	}

	if len(fields) == 0 {
		fields = nil
	}
	return message, fields
}
