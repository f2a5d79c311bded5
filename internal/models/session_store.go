package models

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// SavedCookie is the persisted form of a session cookie
type SavedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session is what the client remembers between invocations: the opaque
// backend cookies, the CSRF token and the last known user.
type Session struct {
	ServerURL string        `json:"server_url"`
	Cookies   []SavedCookie `json:"cookies"`
	CSRFToken string        `json:"csrf_token,omitempty"`
	User      *User         `json:"user,omitempty"`
}

type SessionStore struct {
	SessionFile string
}

func NewSessionStore(configDir string) *SessionStore {
	return &SessionStore{
		SessionFile: filepath.Join(configDir, ".session"),
	}
}

func (s *SessionStore) Save(session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return os.WriteFile(s.SessionFile, data, 0600) // Restricted permissions
}

// Load returns the saved session, or nil with no error if none was saved
func (s *SessionStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.SessionFile)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *SessionStore) Clear() error {
	if _, err := os.Stat(s.SessionFile); os.IsNotExist(err) {
		return nil // File doesn't exist, nothing to clear
	}
	return os.Remove(s.SessionFile)
}
