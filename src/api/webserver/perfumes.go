package webserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dupelab/dupelab-api/src/api/catalog"
	"github.com/dupelab/dupelab-api/src/api/types"
)

type Perfumes struct {
	db *gorm.DB
}

func (h Perfumes) Search(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	p := catalog.SearchParams{
		Tipo:     c.Query("tipo"),
		Marca:    c.Query("marca"),
		ParentID: c.Query("parentId"),
		Query:    c.Query("q"),
		Status:   c.Query("status"),
		Limit:    limit,
		Offset:   offset,
	}
	// Non-moderators only ever see the approved catalog.
	if !c.GetBool("moderator") {
		p.Status = types.StatusApproved
	}

	res, err := catalog.Search(h.db, p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h Perfumes) Get(c *gin.Context) {
	d, err := catalog.FindByID(h.db, c.Param("id"))
	if err != nil {
		h.abortCatalog(c, err)
		return
	}
	if !h.visible(c, d.Perfume) {
		c.JSON(http.StatusNotFound, gin.H{"err": "perfume not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Perfumes) GetBySlug(c *gin.Context) {
	d, err := catalog.FindBySlug(h.db, c.Param("slug"))
	if err != nil {
		h.abortCatalog(c, err)
		return
	}
	if !h.visible(c, d.Perfume) {
		c.JSON(http.StatusNotFound, gin.H{"err": "perfume not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

// visible hides unapproved entries from everyone but their creator and
// moderators.
func (h Perfumes) visible(c *gin.Context, p types.Perfume) bool {
	if p.Status == types.StatusApproved {
		return true
	}
	return c.GetBool("moderator") || p.CreatedBy == c.GetString("uid")
}

func (h Perfumes) Dupes(c *gin.Context) {
	dupes, err := catalog.Dupes(h.db, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, dupes)
}

func (h Perfumes) Brands(c *gin.Context) {
	brands, err := catalog.Brands(h.db)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, brands)
}

func (h Perfumes) PopularTags(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	tags, err := catalog.PopularTags(h.db, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, tags)
}

// Submit creates a catalog entry directly. Moderator submissions go live
// immediately, everyone else's wait in pending.
func (h Perfumes) Submit(c *gin.Context) {
	var f catalog.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	uid := c.GetString("uid")
	var p *types.Perfume
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		if c.GetBool("moderator") {
			p, txErr = catalog.InsertApproved(tx, f, uid, uid)
		} else {
			p, txErr = catalog.InsertPending(tx, f, uid)
		}
		return txErr
	})
	if err != nil {
		h.abortCatalog(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h Perfumes) Update(c *gin.Context) {
	var f catalog.Fields
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	id := c.Param("id")
	err := h.db.Transaction(func(tx *gorm.DB) error {
		return catalog.ApplyEdit(tx, id, f)
	})
	if err != nil {
		h.abortCatalog(c, err)
		return
	}

	d, err := catalog.FindByID(h.db, id)
	if err != nil {
		h.abortCatalog(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h Perfumes) Approve(c *gin.Context) {
	if err := catalog.Approve(h.db, c.Param("id"), c.GetString("uid")); err != nil {
		h.abortCatalog(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Perfumes) Reject(c *gin.Context) {
	if err := catalog.Reject(h.db, c.Param("id")); err != nil {
		h.abortCatalog(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Perfumes) Delete(c *gin.Context) {
	err := h.db.Transaction(func(tx *gorm.DB) error {
		return catalog.Remove(tx, c.Param("id"))
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Perfumes) AddTag(c *gin.Context) {
	var req struct {
		Tag string `json:"tag" binding:"required,min=1,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := catalog.AddTag(h.db, c.Param("id"), clean(req.Tag)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h Perfumes) RemoveTag(c *gin.Context) {
	if err := catalog.RemoveTag(h.db, c.Param("id"), c.Param("tag")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Perfumes) AddURL(c *gin.Context) {
	var req struct {
		Tipo string `json:"tipo" binding:"max=32"`
		URL  string `json:"url" binding:"required,url,max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}
	if err := catalog.AddURL(h.db, c.Param("id"), req.Tipo, req.URL); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true})
}

func (h Perfumes) RemoveURL(c *gin.Context) {
	if err := catalog.RemoveURL(h.db, c.Param("urlId")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h Perfumes) abortCatalog(c *gin.Context, err error) {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"err": "perfume not found"})
	case errors.Is(err, catalog.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
	}
}
