package webserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/groups"
	"github.com/dupelab/dupelab-api/src/api/membership"
)

type Groups struct {
	db *gorm.DB
}

func (h Groups) Create(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required,min=2,max=100"`
		Description string  `json:"description" binding:"max=500"`
		PublicRead  bool    `json:"publicRead"`
		PublicSlug  *string `json:"publicSlug" binding:"omitempty,min=3,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	g, err := groups.Create(h.db, groups.CreateParams{
		Name:        clean(req.Name),
		Description: clean(req.Description),
		OwnerID:     c.GetString("uid"),
		PublicRead:  req.PublicRead,
		PublicSlug:  req.PublicSlug,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"err": "public slug already taken"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h Groups) Mine(c *gin.Context) {
	list, err := groups.Mine(h.db, c.GetString("uid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Groups) Get(c *gin.Context) {
	g, err := groups.FindByID(h.db, c.Param("id"))
	if err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"group": g, "role": c.GetString("groupRole")})
}

// Public serves the read-only view of a group that opted into public
// visibility, no authentication required.
func (h Groups) Public(c *gin.Context) {
	g, err := groups.FindBySlug(h.db, c.Param("slug"))
	if err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          g.ID,
		"name":        g.Name,
		"description": g.Description,
	})
}

func (h Groups) Update(c *gin.Context) {
	var req struct {
		Name        *string `json:"name" binding:"omitempty,min=2,max=100"`
		Description *string `json:"description" binding:"omitempty,max=500"`
		PublicRead  *bool   `json:"publicRead"`
		PublicSlug  *string `json:"publicSlug" binding:"omitempty,min=3,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	g, err := groups.Update(h.db, c.Param("id"), groups.UpdateParams{
		Name:        req.Name,
		Description: req.Description,
		PublicRead:  req.PublicRead,
		PublicSlug:  req.PublicSlug,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"err": "public slug already taken"})
			return
		}
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h Groups) Delete(c *gin.Context) {
	if err := groups.Delete(h.db, c.Param("id")); err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Groups) RegenerateCode(c *gin.Context) {
	code, err := groups.RegenerateInviteCode(h.db, c.Param("id"))
	if err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inviteCode": code})
}

func (h Groups) Join(c *gin.Context) {
	var req struct {
		Code string `json:"code" binding:"required,len=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	g, err := groups.FindByInviteCode(h.db, req.Code)
	if err != nil {
		h.abortGroup(c, err)
		return
	}
	if err := groups.AddMember(h.db, g.ID, c.GetString("uid"), membership.RoleMember); err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h Groups) Members(c *gin.Context) {
	list, err := groups.Members(h.db, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Groups) AddMember(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required,uuid"`
		Role   string `json:"role" binding:"omitempty,oneof=editor member viewer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	role := membership.Role(req.Role)
	if role == "" {
		role = membership.RoleMember
	}

	if err := groups.AddMember(h.db, c.Param("id"), req.UserID, role); err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h Groups) UpdateMemberRole(c *gin.Context) {
	var req struct {
		Role string `json:"role" binding:"required,oneof=editor member viewer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	if err := groups.UpdateMemberRole(h.db, c.Param("id"), c.Param("userId"), membership.Role(req.Role)); err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Groups) RemoveMember(c *gin.Context) {
	if err := groups.RemoveMember(h.db, c.Param("id"), c.Param("userId")); err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Groups) Leave(c *gin.Context) {
	if err := groups.Leave(h.db, c.Param("id"), c.GetString("uid")); err != nil {
		h.abortGroup(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Groups) abortGroup(c *gin.Context, err error) {
	switch {
	case errors.Is(err, groups.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "group not found"})
	case errors.Is(err, groups.ErrDuplicateMember):
		c.JSON(http.StatusConflict, gin.H{"err": "already a member"})
	case errors.Is(err, groups.ErrOwnerCannotLeave):
		c.JSON(http.StatusBadRequest, gin.H{"err": "owner cannot leave the group"})
	case errors.Is(err, membership.ErrNotMember):
		c.JSON(http.StatusNotFound, gin.H{"err": "member not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
