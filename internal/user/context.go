// File: internal/user/context.go
package user

import "github.com/gin-gonic/gin"

// GinUserKey is the gin context key under which the resolved local user is
// stored by the access barrier.
const GinUserKey = "user.current"

// CurrentUser returns the local user resolved by the access barrier, or
// ok=false on routes outside it.
func CurrentUser(c *gin.Context) (*User, bool) {
	val, exists := c.Get(GinUserKey)
	if !exists {
		return nil, false
	}
	record, ok := val.(*User)
	return record, ok
}
