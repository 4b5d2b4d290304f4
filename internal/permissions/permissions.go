// Package permissions evaluates per-user access to a document.
// Access levels are totally ordered (view < comment < edit < manage) and
// the document owner implicitly holds every level.
package permissions

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAccessLevel is returned when a level string is not recognised.
	ErrInvalidAccessLevel = errors.New("invalid access level")

	// ErrInvalidPermission is returned when a grant has no user.
	ErrInvalidPermission = errors.New("invalid permission")
)

// AccessLevel is a cumulative grant on a document.
type AccessLevel string

const (
	View    AccessLevel = "view"
	Comment AccessLevel = "comment"
	Edit    AccessLevel = "edit"
	Manage  AccessLevel = "manage"
)

var rank = map[AccessLevel]int{
	View:    1,
	Comment: 2,
	Edit:    3,
	Manage:  4,
}

// ParseAccessLevel converts the wire form of a level into an AccessLevel.
func ParseAccessLevel(s string) (AccessLevel, error) {
	l := AccessLevel(s)
	if err := l.Validate(); err != nil {
		return "", err
	}
	return l, nil
}

// Validate reports whether l is one of the four known levels.
func (l AccessLevel) Validate() error {
	if _, ok := rank[l]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAccessLevel, string(l))
	}
	return nil
}

// Satisfies reports whether l grants at least required.
// Unknown levels never satisfy anything.
func (l AccessLevel) Satisfies(required AccessLevel) bool {
	have, ok := rank[l]
	if !ok {
		return false
	}
	need, ok := rank[required]
	if !ok {
		return false
	}
	return have >= need
}

// Permission grants AccessLevel on a document to UserID.
type Permission struct {
	UserID      string      `json:"user_id" bson:"user_id"`
	AccessLevel AccessLevel `json:"access_level" bson:"access_level"`
}

// HasAccess decides whether userID holds required on a document owned by ownerID
// with the given grants. The owner always passes. Duplicate grants for the same
// user are all considered; any one that satisfies required is enough.
func HasAccess(ownerID string, grants []Permission, userID string, required AccessLevel) bool {
	if userID == ownerID {
		return true
	}

	allowed := false
	for _, g := range grants {
		if g.UserID != userID {
			continue
		}
		if g.AccessLevel.Satisfies(required) {
			allowed = true
		}
	}
	return allowed
}

// Validate checks every grant has a user and a known level.
func Validate(grants []Permission) error {
	for i, g := range grants {
		if g.UserID == "" {
			return fmt.Errorf("%w: entry %d has no user_id", ErrInvalidPermission, i)
		}
		if err := g.AccessLevel.Validate(); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return nil
}
