package webserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/data"
	"github.com/dupelab/dupelab-api/src/api/types"
)

type Admin struct {
	db *gorm.DB
}

func (h Admin) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	q := h.db.Model(&types.User{})
	if email := c.Query("email"); email != "" {
		q = q.Where("email LIKE ?", "%"+email+"%")
	}
	if c.Query("moderators") == "true" {
		q = q.Where("is_moderator = ?", true)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	users := []types.User{}
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": users, "total": total})
}

// SetModerator flips a user's global moderator flag. Moderator status is
// independent of any group or expedition role.
func (h Admin) SetModerator(c *gin.Context) {
	var req struct {
		IsModerator *bool `json:"isModerator" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	res := h.db.Model(&types.User{}).
		Where("id = ?", c.Param("id")).
		Update("is_moderator", *req.IsModerator)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Admin) ListSettings(c *gin.Context) {
	settings := []types.Setting{}
	if err := h.db.Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h Admin) UpdateSetting(c *gin.Context) {
	var req struct {
		Value string `json:"value" binding:"required,max=256"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	res := h.db.Model(&types.Setting{}).
		Where("name = ?", c.Param("name")).
		Update("value", req.Value)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "setting not found"})
		return
	}
	if err := data.RefreshSettings(h.db); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
