package auth

import "github.com/gin-gonic/gin"

const (
	ownerUIDKey   = "donna.owner_uid"
	ownerEmailKey = "donna.owner_email"
)

// SetOwner records the verified caller on the request.
func SetOwner(c *gin.Context, uid, email string) {
	c.Set(ownerUIDKey, uid)
	if email != "" {
		c.Set(ownerEmailKey, email)
	}
}

// OwnerUID is empty when the request did not pass the owner guard.
func OwnerUID(c *gin.Context) string { return c.GetString(ownerUIDKey) }

func OwnerEmail(c *gin.Context) string { return c.GetString(ownerEmailKey) }
