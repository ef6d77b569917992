package membership

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var allGroupRoles = []Role{RoleOwner, RoleEditor, RoleMember, RoleViewer}
var allExpeditionRoles = []Role{RoleOwner, RoleEditor, RoleViewer}

// RequireGroup gates a group-scoped route. With no explicit roles any member
// passes. The resolved role is stored as "groupRole" for handlers that care.
func RequireGroup(db *gorm.DB, allowed ...Role) gin.HandlerFunc {
	if len(allowed) == 0 {
		allowed = allGroupRoles
	}
	return func(c *gin.Context) {
		groupID := c.Param("id")
		if groupID == "" {
			groupID = c.Param("groupId")
		}
		if groupID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"err": "group id required"})
			return
		}

		role, err := GroupRole(db, groupID, c.GetString("uid"))
		if err != nil {
			abortGate(c, err, "not a member of this group")
			return
		}
		if err := CheckAllowed(role, allowed...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "insufficient permission in this group"})
			return
		}

		c.Set("groupRole", string(role))
		c.Next()
	}
}

// RequireExpedition gates an expedition-scoped route.
func RequireExpedition(db *gorm.DB, allowed ...Role) gin.HandlerFunc {
	if len(allowed) == 0 {
		allowed = allExpeditionRoles
	}
	return func(c *gin.Context) {
		expeditionID := c.Param("id")
		if expeditionID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"err": "expedition id required"})
			return
		}

		role, err := ExpeditionRole(db, expeditionID, c.GetString("uid"))
		if err != nil {
			abortGate(c, err, "no access to this expedition")
			return
		}
		if err := CheckAllowed(role, allowed...); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": "insufficient permission in this expedition"})
			return
		}

		c.Set("expeditionRole", string(role))
		c.Next()
	}
}

func abortGate(c *gin.Context, err error, memberMsg string) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"err": "resource not found"})
	case errors.Is(err, ErrNotMember):
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"err": memberMsg})
	default:
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
