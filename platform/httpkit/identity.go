package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity describes the caller authenticated by AuthRequired. The zero
// value is an anonymous caller.
type Identity struct {
	UserID uuid.UUID
	Roles  []string
}

// Authenticated reports whether the request carried a valid access token.
func (id Identity) Authenticated() bool {
	return id.UserID != uuid.Nil
}

// HasRole reports whether the caller holds the given role.
func (id Identity) HasRole(role string) bool {
	for _, r := range id.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetIdentity reads the caller identity that AuthRequired stored on the
// Gin context. Requests that skipped authentication yield the zero Identity.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return Identity{}
	}
	uid, ok := raw.(uuid.UUID)
	if !ok {
		return Identity{}
	}

	var roles []string
	if raw, ok := c.Get(ContextRolesKey); ok {
		roles, _ = raw.([]string)
	}
	return Identity{UserID: uid, Roles: roles}
}
