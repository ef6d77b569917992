package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dupelab/dupelab-api/src/api/types"
)

type Prices struct {
	db *gorm.DB
}

// Upsert records the current price of a perfume at a store. One live row per
// (group, perfume, store); every write also appends to the price history.
func (h Prices) Upsert(c *gin.Context) {
	var req struct {
		PerfumeID string  `json:"perfumeId" binding:"required,uuid"`
		StoreID   string  `json:"storeId" binding:"required,uuid"`
		Precio    float64 `json:"precio" binding:"required,gt=0,lte=99999"`
		Agotado   bool    `json:"agotado"`
		Nota      string  `json:"nota" binding:"max=255"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	groupID := c.Param("id")
	var store types.GroupStore
	if err := h.db.First(&store, "id = ? AND group_id = ?", req.StoreID, groupID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "store not found in this group"})
		return
	}
	var perfume types.Perfume
	if err := h.db.First(&perfume, "id = ? AND status = ?", req.PerfumeID, types.StatusApproved).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "perfume not found"})
		return
	}

	uid := c.GetString("uid")
	price := types.GroupPerfumePrice{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		PerfumeID: req.PerfumeID,
		StoreID:   req.StoreID,
		Precio:    req.Precio,
		Agotado:   req.Agotado,
		Nota:      clean(req.Nota),
		UpdatedBy: uid,
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "group_id"}, {Name: "perfume_id"}, {Name: "store_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"precio", "agotado", "nota", "updated_by", "updated_at",
			}),
		}).Create(&price).Error
		if err != nil {
			return err
		}
		return tx.Create(&types.PriceHistory{
			ID:         uuid.NewString(),
			PerfumeID:  req.PerfumeID,
			StoreID:    req.StoreID,
			Precio:     req.Precio,
			RecordedBy: uid,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	var current types.GroupPerfumePrice
	if err := h.db.First(&current, "group_id = ? AND perfume_id = ? AND store_id = ?",
		groupID, req.PerfumeID, req.StoreID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, current)
}

func (h Prices) List(c *gin.Context) {
	q := h.db.Where("group_id = ?", c.Param("id"))
	if pid := c.Query("perfumeId"); pid != "" {
		q = q.Where("perfume_id = ?", pid)
	}
	if sid := c.Query("storeId"); sid != "" {
		q = q.Where("store_id = ?", sid)
	}
	if a := c.Query("agotado"); a != "" {
		q = q.Where("agotado = ?", a == "true")
	}

	prices := []types.GroupPerfumePrice{}
	if err := q.Order("updated_at DESC").Find(&prices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prices)
}

// ForPerfume lists the live prices of one perfume across the group's stores,
// cheapest in-stock first.
func (h Prices) ForPerfume(c *gin.Context) {
	prices := []types.GroupPerfumePrice{}
	err := h.db.Where("group_id = ? AND perfume_id = ?", c.Param("id"), c.Param("perfumeId")).
		Order("agotado ASC, precio ASC").
		Find(&prices).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, prices)
}

func (h Prices) Lowest(c *gin.Context) {
	var lowest types.GroupPerfumePrice
	err := h.db.Where("group_id = ? AND perfume_id = ? AND agotado = ?",
		c.Param("id"), c.Param("perfumeId"), false).
		Order("precio ASC").
		First(&lowest).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "no price in stock"})
		return
	}
	c.JSON(http.StatusOK, lowest)
}

func (h Prices) History(c *gin.Context) {
	storeIDs := []string{}
	err := h.db.Model(&types.GroupStore{}).
		Where("group_id = ?", c.Param("id")).
		Pluck("id", &storeIDs).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if len(storeIDs) == 0 {
		c.JSON(http.StatusOK, []types.PriceHistory{})
		return
	}

	history := []types.PriceHistory{}
	err = h.db.Where("perfume_id = ? AND store_id IN ?", c.Param("perfumeId"), storeIDs).
		Order("recorded_at DESC").
		Limit(200).
		Find(&history).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h Prices) Delete(c *gin.Context) {
	res := h.db.Where("id = ? AND group_id = ?", c.Param("priceId"), c.Param("id")).
		Delete(&types.GroupPerfumePrice{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"err": "price not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
