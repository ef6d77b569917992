package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/types"
)

type Users struct {
	db *gorm.DB
}

// PublicProfile is what any signed-in user may see about another user.
type PublicProfile struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IsModerator bool   `json:"isModerator"`
}

func (h Users) Get(c *gin.Context) {
	var u types.User
	if err := h.db.First(&u, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	c.JSON(http.StatusOK, PublicProfile{
		ID:          u.ID,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		IsModerator: u.IsModerator,
	})
}

func (h Users) UpdateMe(c *gin.Context) {
	var req struct {
		DisplayName *string `json:"displayName" binding:"omitempty,min=2,max=100"`
		PhotoURL    *string `json:"photoUrl" binding:"omitempty,max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.DisplayName != nil {
		updates["display_name"] = clean(*req.DisplayName)
	}
	if req.PhotoURL != nil {
		updates["photo_url"] = *req.PhotoURL
	}
	if len(updates) > 0 {
		if err := h.db.Model(&types.User{}).Where("id = ?", c.GetString("uid")).Updates(updates).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
			return
		}
	}

	var u types.User
	if err := h.db.First(&u, "id = ?", c.GetString("uid")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	c.JSON(http.StatusOK, u)
}
