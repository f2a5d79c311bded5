package models

// AuthStatus is the response of the session status endpoint
type AuthStatus struct {
	IsAuthenticated bool  `json:"isAuthenticated"`
	User            *User `json:"user"`
}

// Credentials are sent to the login endpoint
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
