package webserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/catalog"
	"github.com/dupelab/dupelab-api/src/api/data"
	"github.com/dupelab/dupelab-api/src/api/proposals"
	"github.com/dupelab/dupelab-api/src/api/types"
)

type Proposals struct {
	db  *gorm.DB
	rdb *redis.Client
}

func (h Proposals) Submit(c *gin.Context) {
	var req struct {
		Action    string         `json:"action" binding:"required,oneof=create edit delete"`
		PerfumeID *string        `json:"perfumeId"`
		Data      catalog.Fields `json:"data"`
		Reason    string         `json:"reason" binding:"max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	p, err := proposals.Submit(h.db, req.Action, req.PerfumeID, req.Data, clean(req.Reason), c.GetString("uid"))
	if err != nil {
		h.abortProposal(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Proposals) ListPending(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, total, err := proposals.ListPending(h.db, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total})
}

func (h Proposals) Mine(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	list, err := proposals.ListMine(h.db, c.GetString("uid"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Proposals) Get(c *gin.Context) {
	p, err := proposals.Get(h.db, c.Param("id"), c.GetString("uid"), c.GetBool("moderator"))
	if err != nil {
		h.abortProposal(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h Proposals) Approve(c *gin.Context) {
	h.decide(c, proposals.DecisionApprove)
}

func (h Proposals) Reject(c *gin.Context) {
	h.decide(c, proposals.DecisionReject)
}

func (h Proposals) decide(c *gin.Context, decision string) {
	var req struct {
		Notes string `json:"notes" binding:"max=500"`
	}
	// Body is optional on decisions.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
			return
		}
	}

	p, err := proposals.Decide(h.db, c.Param("id"), decision, c.GetString("uid"), clean(req.Notes))
	if err != nil {
		h.abortProposal(c, err)
		return
	}

	h.notifyDecision(c, p)
	c.JSON(http.StatusOK, p)
}

// notifyDecision feeds the decision stream consumed by the notifier worker.
// Stream failures never fail the request: the decision is already committed.
func (h Proposals) notifyDecision(c *gin.Context, p *types.Proposal) {
	payload := map[string]interface{}{
		"proposal": p.ID,
		"action":   p.Action,
		"status":   p.Status,
		"user":     p.ProposedBy,
		"url":      data.GetSetting("frontend_url") + "/proposals/" + p.ID,
	}
	if err := data.PublishDecision(c, h.rdb, payload); err != nil {
		log.Printf("failed to publish decision for proposal %s: %v", p.ID, err)
	}
}

func (h Proposals) abortProposal(c *gin.Context, err error) {
	switch {
	case errors.Is(err, proposals.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "proposal not found"})
	case errors.Is(err, proposals.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"err": "proposal already decided"})
	case errors.Is(err, proposals.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"err": "not allowed"})
	case errors.Is(err, proposals.ErrInvalid), errors.Is(err, catalog.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "target perfume not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
