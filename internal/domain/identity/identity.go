// internal/domain/identity/identity.go
package identity

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Kind tags an Identity.
type Kind int

const (
	KindNone Kind = iota
	KindGuest
	KindUser
)

// ErrNoIdentity is returned when a request carries neither a guest token nor a user.
var ErrNoIdentity = errors.New("no caller identity")

// Identity is either Guest(token) or User(id). The zero value is neither.
type Identity struct {
	kind   Kind
	token  string
	userID uint
}

// Guest builds a guest identity from an opaque cart token.
func Guest(token string) Identity {
	return Identity{kind: KindGuest, token: token}
}

// User builds an authenticated identity.
func User(id uint) Identity {
	return Identity{kind: KindUser, userID: id}
}

// NewGuestToken mints an unguessable guest token.
func NewGuestToken() string {
	return uuid.NewString()
}

func (i Identity) Kind() Kind         { return i.kind }
func (i Identity) IsGuest() bool      { return i.kind == KindGuest }
func (i Identity) IsUser() bool       { return i.kind == KindUser }
func (i Identity) GuestToken() string { return i.token }
func (i Identity) UserID() uint       { return i.userID }

// Validate rejects the zero value and malformed tags.
func (i Identity) Validate() error {
	switch i.kind {
	case KindGuest:
		if i.token == "" {
			return ErrNoIdentity
		}
	case KindUser:
		if i.userID == 0 {
			return ErrNoIdentity
		}
	default:
		return ErrNoIdentity
	}
	return nil
}

func (i Identity) String() string {
	switch i.kind {
	case KindGuest:
		return "guest"
	case KindUser:
		return fmt.Sprintf("user:%d", i.userID)
	default:
		return "anonymous"
	}
}
