package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/types"
)

type Stores struct {
	db *gorm.DB
}

func (h Stores) List(c *gin.Context) {
	stores := []types.GroupStore{}
	err := h.db.Where("group_id = ?", c.Param("id")).
		Order("nombre ASC").
		Find(&stores).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stores)
}

func (h Stores) Create(c *gin.Context) {
	var req struct {
		Nombre    string `json:"nombre" binding:"required,min=2,max=100"`
		Tipo      string `json:"tipo" binding:"required,oneof=fisica online"`
		Direccion string `json:"direccion" binding:"max=255"`
		URL       string `json:"url" binding:"omitempty,url,max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	s := types.GroupStore{
		ID:        uuid.NewString(),
		GroupID:   c.Param("id"),
		Nombre:    clean(req.Nombre),
		Tipo:      req.Tipo,
		Direccion: clean(req.Direccion),
		URL:       req.URL,
		CreatedBy: c.GetString("uid"),
	}
	if err := h.db.Create(&s).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, s)
}

func (h Stores) Update(c *gin.Context) {
	var req struct {
		Nombre    *string `json:"nombre" binding:"omitempty,min=2,max=100"`
		Tipo      *string `json:"tipo" binding:"omitempty,oneof=fisica online"`
		Direccion *string `json:"direccion" binding:"omitempty,max=255"`
		URL       *string `json:"url" binding:"omitempty,url,max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Nombre != nil {
		updates["nombre"] = clean(*req.Nombre)
	}
	if req.Tipo != nil {
		updates["tipo"] = *req.Tipo
	}
	if req.Direccion != nil {
		updates["direccion"] = clean(*req.Direccion)
	}
	if req.URL != nil {
		updates["url"] = *req.URL
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "nothing to update"})
		return
	}

	res := h.db.Model(&types.GroupStore{}).
		Where("id = ? AND group_id = ?", c.Param("storeId"), c.Param("id")).
		Updates(updates)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "store not found"})
		return
	}

	var s types.GroupStore
	if err := h.db.First(&s, "id = ?", c.Param("storeId")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, s)
}

// Delete removes a store and every price tracked against it. History rows
// stay: past observations remain valid even when the store is gone.
func (h Stores) Delete(c *gin.Context) {
	err := h.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND group_id = ?", c.Param("storeId"), c.Param("id")).
			Delete(&types.GroupStore{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("store_id = ?", c.Param("storeId")).
			Delete(&types.GroupPerfumePrice{}).Error
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"err": "store not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
