package auth

import "github.com/gin-gonic/gin"

const identityKey = "identity"

// SetIdentity stores the caller on the gin context.
func SetIdentity(c *gin.Context, id Identity) {
	c.Set(identityKey, id)
}

// GetIdentity returns the authenticated caller. ok is false on routes that
// are not behind AuthRequired.
func GetIdentity(c *gin.Context) (Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return Identity{}, false
	}
	id, ok := v.(Identity)
	return id, ok
}

// GetUserID returns the authenticated user's ID or 0.
func GetUserID(c *gin.Context) int64 {
	id, _ := GetIdentity(c)
	return id.UserID
}
