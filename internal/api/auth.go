package api

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/models"
	"net/http"
)

// loginFailedMessage is shown when the backend rejects a login without saying why
const loginFailedMessage = "Login failed. Please try again."

// FetchCSRFToken obtains an anti-forgery token and attaches it to subsequent mutating requests
func (c *Client) FetchCSRFToken(ctx context.Context) (string, error) {
	var response struct {
		CSRFToken string `json:"csrfToken"`
	}

	if err := c.do(ctx, &request{method: http.MethodGet, path: "/auth/csrf/"}, &response); err != nil {
		return "", err
	}
	if response.CSRFToken == "" {
		return "", &models.APIError{Kind: models.ErrAuth, Message: "backend returned an empty CSRF token"}
	}

	c.SetCSRFToken(response.CSRFToken)
	return response.CSRFToken, nil
}

// AuthStatus reports whether the current session is authenticated
func (c *Client) AuthStatus(ctx context.Context) (*models.AuthStatus, error) {
	var status models.AuthStatus
	if err := c.do(ctx, &request{method: http.MethodGet, path: "/auth/status/"}, &status); err != nil {
		return nil, err
	}
	if status.IsAuthenticated && status.User == nil {
		return nil, fmt.Errorf("%w: authenticated status without user", models.ErrMalformedResponse)
	}
	return &status, nil
}

// Login authenticates with the backend; the session cookie lands in the client's jar
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	req, err := jsonRequest(http.MethodPost, "/auth/login/", models.Credentials{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var response struct {
		User *models.User `json:"user"`
	}

	err = c.do(ctx, req, &response)

	var apiErr *models.APIError
	if errors.As(err, &apiErr) && isLoginRejection(apiErr) {
		message := apiErr.Message
		if message == "" {
			message = loginFailedMessage
		}
		return nil, &models.APIError{Kind: models.ErrInvalidCredentials, Status: apiErr.Status, Message: message}
	}
	if err != nil {
		return nil, err
	}

	if response.User == nil {
		return nil, fmt.Errorf("%w: login response without user", models.ErrMalformedResponse)
	}
	return response.User, nil
}

// isLoginRejection reports whether the backend refused the credentials. A 403
// is a CSRF rejection and stays an auth error.
func isLoginRejection(apiErr *models.APIError) bool {
	return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusBadRequest
}

// Logout ends the server-side session
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, &request{method: http.MethodPost, path: "/auth/logout/"}, nil)
}
