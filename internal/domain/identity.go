package domain

import "strings"

// GuestIdentityKey is the snapshot key used for unauthenticated sessions
const GuestIdentityKey = "guest"

// Identity is who the engine is reconciling state for
type Identity struct {
	Key           string
	Authenticated bool
	// GuestKey is the device's guest snapshot key, used to seed a new account
	GuestKey string
}

// Guest returns the identity for an unauthenticated device session.
// An empty device id yields the bare guest key.
func Guest(deviceID string) Identity {
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return Identity{Key: GuestIdentityKey}
	}
	return Identity{Key: GuestIdentityKey + ":" + deviceID}
}

// User returns the identity for a signed-in user
func User(userID string) Identity {
	return Identity{Key: userID, Authenticated: true}
}

// WithDevice records the guest session the identity signed in from
func (i Identity) WithDevice(deviceID string) Identity {
	i.GuestKey = Guest(deviceID).Key
	return i
}

// IsGuest reports whether the identity never touches the remote document
func (i Identity) IsGuest() bool {
	return !i.Authenticated
}

func (i Identity) String() string {
	return i.Key
}
