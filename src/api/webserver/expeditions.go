package webserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/expeditions"
	"github.com/dupelab/dupelab-api/src/api/membership"
)

type Expeditions struct {
	db *gorm.DB
}

func (h Expeditions) Create(c *gin.Context) {
	var req struct {
		Nombre     string    `json:"nombre" binding:"required,min=2,max=100"`
		Fecha      time.Time `json:"fecha" binding:"required"`
		Visibility string    `json:"visibility" binding:"omitempty,oneof=personal group"`
		GroupID    *string   `json:"groupId" binding:"omitempty,uuid"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := c.GetString("uid")
	if req.Visibility == "group" {
		if req.GroupID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": "group expedition needs a groupId"})
			return
		}
		role, err := membership.GroupRole(h.db, *req.GroupID, uid)
		if err != nil || membership.CheckAllowed(role, membership.RoleOwner, membership.RoleEditor, membership.RoleMember) != nil {
			c.JSON(http.StatusForbidden, gin.H{"err": "not a member of that group"})
			return
		}
	}

	e, err := expeditions.Create(h.db, expeditions.CreateParams{
		Nombre:     clean(req.Nombre),
		Fecha:      req.Fecha,
		Visibility: req.Visibility,
		GroupID:    req.GroupID,
		OwnerID:    uid,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h Expeditions) Mine(c *gin.Context) {
	list, err := expeditions.Mine(h.db, c.GetString("uid"), c.Query("estado"), c.Query("visibility"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Expeditions) Get(c *gin.Context) {
	e, err := expeditions.FindByID(h.db, c.Param("id"))
	if err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"expedition": e, "role": c.GetString("expeditionRole")})
}

func (h Expeditions) ByGroup(c *gin.Context) {
	list, err := expeditions.ByGroup(h.db, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Expeditions) Update(c *gin.Context) {
	var req struct {
		Nombre *string    `json:"nombre" binding:"omitempty,min=2,max=100"`
		Fecha  *time.Time `json:"fecha"`
		Estado *string    `json:"estado" binding:"omitempty,oneof=planificando activa cerrada"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	e, err := expeditions.Update(h.db, c.Param("id"), expeditions.UpdateParams{
		Nombre: req.Nombre,
		Fecha:  req.Fecha,
		Estado: req.Estado,
	})
	if err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h Expeditions) Delete(c *gin.Context) {
	if err := expeditions.Delete(h.db, c.Param("id")); err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Expeditions) Members(c *gin.Context) {
	list, err := expeditions.Members(h.db, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Expeditions) AddMember(c *gin.Context) {
	var req struct {
		UserID string `json:"userId" binding:"required,uuid"`
		Role   string `json:"role" binding:"omitempty,oneof=editor viewer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	role := membership.Role(req.Role)
	if role == "" {
		role = membership.RoleViewer
	}

	if err := expeditions.AddMember(h.db, c.Param("id"), req.UserID, role); err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h Expeditions) RemoveMember(c *gin.Context) {
	if err := expeditions.RemoveMember(h.db, c.Param("id"), c.Param("userId")); err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Expeditions) Items(c *gin.Context) {
	list, err := expeditions.Items(h.db, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Expeditions) AddItem(c *gin.Context) {
	var req struct {
		PerfumeID    *string `json:"perfumeId" binding:"omitempty,uuid"`
		NombreManual string  `json:"nombreManual" binding:"max=200"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if req.PerfumeID == nil && req.NombreManual == "" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "item needs a perfumeId or a manual name"})
		return
	}

	item, err := expeditions.AddItem(h.db, c.Param("id"), req.PerfumeID, clean(req.NombreManual), c.GetString("uid"))
	if err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h Expeditions) UpdateItemStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required,oneof=pendiente probado no_encontrado comprado descartado"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	item, err := expeditions.UpdateItemStatus(h.db, c.Param("itemId"), req.Status)
	if err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h Expeditions) RemoveItem(c *gin.Context) {
	if err := expeditions.RemoveItem(h.db, c.Param("itemId")); err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Expeditions) ItemNotes(c *gin.Context) {
	list, err := expeditions.ItemNotes(h.db, c.Param("itemId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Expeditions) AddItemNote(c *gin.Context) {
	var req struct {
		Nota   string `json:"nota" binding:"required,min=1,max=1000"`
		Rating *uint8 `json:"rating" binding:"omitempty,min=1,max=10"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	note, err := expeditions.AddItemNote(h.db, c.Param("itemId"), c.GetString("uid"), clean(req.Nota), req.Rating)
	if err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

func (h Expeditions) RemoveItemNote(c *gin.Context) {
	if err := expeditions.RemoveItemNote(h.db, c.Param("noteId")); err != nil {
		h.abortExpedition(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Expeditions) abortExpedition(c *gin.Context, err error) {
	switch {
	case errors.Is(err, expeditions.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "expedition not found"})
	case errors.Is(err, expeditions.ErrItemNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "expedition item not found"})
	case errors.Is(err, expeditions.ErrDuplicateMember):
		c.JSON(http.StatusConflict, gin.H{"err": "already a member"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
