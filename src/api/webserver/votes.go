package webserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dupelab/dupelab-api/src/api/types"
)

type Votes struct {
	db *gorm.DB
}

type voteRequest struct {
	Calidad    *uint8 `json:"calidad" binding:"omitempty,min=1,max=10"`
	Proyeccion *uint8 `json:"proyeccion" binding:"omitempty,min=1,max=10"`
	Duracion   *uint8 `json:"duracion" binding:"omitempty,min=1,max=10"`
	Parecido   *uint8 `json:"parecido" binding:"omitempty,min=1,max=10"`
	Comentario string `json:"comentario" binding:"max=1000"`
}

func (r voteRequest) empty() bool {
	return r.Calidad == nil && r.Proyeccion == nil && r.Duracion == nil && r.Parecido == nil
}

// Cast upserts the caller's global vote on a perfume. One vote per user per
// perfume per scope; re-voting overwrites the previous axes.
func (h Votes) Cast(c *gin.Context) {
	h.cast(c, c.Param("id"), "global", "")
}

// CastGroup upserts a group-scoped vote, kept apart from the global
// aggregates.
func (h Votes) CastGroup(c *gin.Context) {
	h.cast(c, c.Param("perfumeId"), "group", c.Param("id"))
}

func (h Votes) cast(c *gin.Context, perfumeID, scope, groupID string) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if req.empty() {
		c.JSON(http.StatusBadRequest, gin.H{"err": "vote needs at least one axis"})
		return
	}

	var perfume types.Perfume
	if err := h.db.First(&perfume, "id = ? AND status = ?", perfumeID, types.StatusApproved).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "perfume not found"})
		return
	}
	// Parecido measures similarity to the parent, meaningless on originals.
	if req.Parecido != nil && perfume.Tipo != "dupe" {
		c.JSON(http.StatusBadRequest, gin.H{"err": "parecido only applies to dupes"})
		return
	}

	uid := c.GetString("uid")
	v := types.Vote{
		ID:         uuid.NewString(),
		PerfumeID:  perfumeID,
		UserID:     uid,
		Scope:      scope,
		GroupID:    groupID,
		Calidad:    req.Calidad,
		Proyeccion: req.Proyeccion,
		Duracion:   req.Duracion,
		Parecido:   req.Parecido,
		Comentario: clean(req.Comentario),
	}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "perfume_id"}, {Name: "user_id"}, {Name: "scope"}, {Name: "group_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"calidad", "proyeccion", "duracion", "parecido", "comentario", "updated_at",
			}),
		}).Create(&v).Error
		if err != nil {
			return err
		}
		if scope == "global" {
			return recomputeAggregates(tx, perfumeID)
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}

	var saved types.Vote
	if err := h.db.First(&saved, "perfume_id = ? AND user_id = ? AND scope = ? AND group_id = ?",
		perfumeID, uid, scope, groupID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, saved)
}

// recomputeAggregates refreshes the denormalized averages from the global
// votes. Axes left empty by a voter simply do not count toward that average.
func recomputeAggregates(tx *gorm.DB, perfumeID string) error {
	var agg struct {
		AvgParecido   float64
		AvgCalidad    float64
		AvgDuracion   float64
		AvgProyeccion float64
		VotesCount    uint32
	}
	err := tx.Model(&types.Vote{}).
		Select("COALESCE(AVG(parecido), 0) AS avg_parecido, "+
			"COALESCE(AVG(calidad), 0) AS avg_calidad, "+
			"COALESCE(AVG(duracion), 0) AS avg_duracion, "+
			"COALESCE(AVG(proyeccion), 0) AS avg_proyeccion, "+
			"COUNT(*) AS votes_count").
		Where("perfume_id = ? AND scope = ?", perfumeID, "global").
		Scan(&agg).Error
	if err != nil {
		return err
	}
	return tx.Model(&types.Perfume{}).Where("id = ?", perfumeID).Updates(map[string]interface{}{
		"avg_parecido":   agg.AvgParecido,
		"avg_calidad":    agg.AvgCalidad,
		"avg_duracion":   agg.AvgDuracion,
		"avg_proyeccion": agg.AvgProyeccion,
		"votes_count":    agg.VotesCount,
	}).Error
}

func (h Votes) ForPerfume(c *gin.Context) {
	votes := []types.Vote{}
	err := h.db.Where("perfume_id = ? AND scope = ?", c.Param("id"), "global").
		Order("updated_at DESC").
		Limit(100).
		Find(&votes).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, votes)
}

func (h Votes) MineForPerfume(c *gin.Context) {
	var v types.Vote
	err := h.db.First(&v, "perfume_id = ? AND user_id = ? AND scope = ?",
		c.Param("id"), c.GetString("uid"), "global").Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"err": "no vote yet"})
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h Votes) Mine(c *gin.Context) {
	votes := []types.Vote{}
	err := h.db.Where("user_id = ?", c.GetString("uid")).
		Order("updated_at DESC").
		Find(&votes).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, votes)
}

func (h Votes) GroupFeed(c *gin.Context) {
	q := h.db.Where("group_id = ? AND scope = ?", c.Param("id"), "group")
	if pid := c.Query("perfumeId"); pid != "" {
		q = q.Where("perfume_id = ?", pid)
	}

	votes := []types.Vote{}
	if err := q.Order("updated_at DESC").Limit(100).Find(&votes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, votes)
}

func (h Votes) Delete(c *gin.Context) {
	h.delete(c, c.Param("id"), "global", "")
}

func (h Votes) DeleteGroup(c *gin.Context) {
	h.delete(c, c.Param("perfumeId"), "group", c.Param("id"))
}

func (h Votes) delete(c *gin.Context, perfumeID, scope, groupID string) {
	err := h.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("perfume_id = ? AND user_id = ? AND scope = ? AND group_id = ?",
			perfumeID, c.GetString("uid"), scope, groupID).
			Delete(&types.Vote{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if scope == "global" {
			return recomputeAggregates(tx, perfumeID)
		}
		return nil
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"err": "vote not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
