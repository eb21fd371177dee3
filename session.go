package authstate

import (
	"fmt"
	"time"
)

var _ Session = &SessionObject{}

// SessionObject is the credential bundle a provider hands the store on every
// session-change event.
type SessionObject struct {
	UserID         string         `json:"user_id,omitempty"`
	Identity       Identity       `json:"identity,omitempty"`
	AccessToken    string         `json:"access_token,omitempty"`
	IssuedAt       *time.Time     `json:"issued_at,omitempty"`
	ExpirationDate *time.Time     `json:"expiration_date,omitempty"`
	Data           map[string]any `json:"data,omitempty"`
}

func (s *SessionObject) GetUserID() string {
	return s.UserID
}

func (s *SessionObject) GetIdentity() Identity {
	return s.Identity
}

func (s *SessionObject) GetIssuedAt() *time.Time {
	return s.IssuedAt
}

func (s *SessionObject) GetData() map[string]any {
	return s.Data
}

func (s SessionObject) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf("user=%s iat=%s data=%v", s.UserID, issuedAt, s.Data)
}

// NewIdentity builds a read-only Identity snapshot. Providers use it when
// materializing sessions; consumers never construct identities themselves.
func NewIdentity(id, username, email string) Identity {
	return identityObject{id: id, username: username, email: email}
}

type identityObject struct {
	id       string
	username string
	email    string
}

func (a identityObject) ID() string       { return a.id }
func (a identityObject) Username() string { return a.username }
func (a identityObject) Email() string    { return a.email }

var _ Identity = identityObject{}
