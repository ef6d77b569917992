// Catalog reads and mutations. The three mutator primitives (InsertApproved,
// ApplyEdit, Remove) take the caller's transaction handle so proposal
// approvals commit the catalog change and the status change as one unit.
package catalog

import (
	"errors"
	"fmt"
	"time"

	"github.com/dupelab/dupelab-api/src/api/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("perfume not found")
	ErrInvalid  = errors.New("invalid perfume data")
)

// Fields is the payload a proposal (or a direct edit) may set. Pointers
// distinguish "absent" from "zero": only present fields are applied.
type Fields struct {
	Tipo            *string `json:"tipo,omitempty"`
	ParentID        *string `json:"parentId,omitempty"`
	Nombre          *string `json:"nombre,omitempty"`
	Marca           *string `json:"marca,omitempty"`
	ML              *uint16 `json:"ml,omitempty"`
	ImagenPrincipal *string `json:"imagenPrincipal,omitempty"`
	URLFragrantica  *string `json:"urlFragrantica,omitempty"`
}

// InsertApproved creates a catalog entry with status=approved, attributed to
// the original proposer. Used by proposal approval, where the proposal itself
// already represents the review.
func InsertApproved(tx *gorm.DB, f Fields, attributedTo, approvedBy string) (*types.Perfume, error) {
	return insert(tx, f, attributedTo, types.StatusApproved, &approvedBy)
}

// InsertPending creates a catalog entry awaiting moderation, for direct
// non-moderator submissions.
func InsertPending(tx *gorm.DB, f Fields, createdBy string) (*types.Perfume, error) {
	return insert(tx, f, createdBy, types.StatusPending, nil)
}

func insert(tx *gorm.DB, f Fields, createdBy, status string, approvedBy *string) (*types.Perfume, error) {
	if f.Nombre == nil || *f.Nombre == "" {
		return nil, fmt.Errorf("%w: nombre is required", ErrInvalid)
	}
	if f.Tipo == nil || (*f.Tipo != "original" && *f.Tipo != "dupe") {
		return nil, fmt.Errorf("%w: tipo must be original or dupe", ErrInvalid)
	}
	if *f.Tipo == "dupe" {
		if f.ParentID == nil {
			return nil, fmt.Errorf("%w: a dupe needs a parentId", ErrInvalid)
		}
		var parent types.Perfume
		if err := tx.Select("id").First(&parent, "id = ?", *f.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: parent perfume does not exist", ErrInvalid)
			}
			return nil, err
		}
	}

	p := types.Perfume{
		ID:        uuid.NewString(),
		Tipo:      *f.Tipo,
		ParentID:  f.ParentID,
		Nombre:    *f.Nombre,
		Slug:      Slug(*f.Nombre, strDeref(f.Marca)),
		Status:    status,
		CreatedBy: createdBy,
	}
	if f.Marca != nil {
		p.Marca = *f.Marca
	}
	if f.ML != nil {
		p.ML = *f.ML
	}
	if f.ImagenPrincipal != nil {
		p.ImagenPrincipal = *f.ImagenPrincipal
	}
	if f.URLFragrantica != nil {
		p.URLFragrantica = *f.URLFragrantica
	}
	if approvedBy != nil {
		now := time.Now()
		p.ApprovedBy = approvedBy
		p.ApprovedAt = &now
	}

	if err := tx.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ApplyEdit applies a partial update: only fields present in f change,
// omitted fields keep their prior values.
func ApplyEdit(tx *gorm.DB, perfumeID string, f Fields) error {
	updates := map[string]interface{}{}
	if f.Nombre != nil {
		updates["nombre"] = *f.Nombre
	}
	if f.Marca != nil {
		updates["marca"] = *f.Marca
	}
	if f.ML != nil {
		updates["ml"] = *f.ML
	}
	if f.ImagenPrincipal != nil {
		updates["imagen_principal"] = *f.ImagenPrincipal
	}
	if f.URLFragrantica != nil {
		updates["url_fragrantica"] = *f.URLFragrantica
	}
	if f.ParentID != nil {
		if *f.ParentID == perfumeID {
			return fmt.Errorf("%w: a perfume cannot be its own parent", ErrInvalid)
		}
		updates["parent_id"] = *f.ParentID
	}
	if len(updates) == 0 {
		return nil
	}

	res := tx.Model(&types.Perfume{}).Where("id = ?", perfumeID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Remove deletes a catalog entry. Removing an already-absent target succeeds:
// the semantics are "eliminate if present".
func Remove(tx *gorm.DB, perfumeID string) error {
	if err := tx.Delete(&types.PerfumeTag{}, "perfume_id = ?", perfumeID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&types.PerfumeURL{}, "perfume_id = ?", perfumeID).Error; err != nil {
		return err
	}
	return tx.Delete(&types.Perfume{}, "id = ?", perfumeID).Error
}

// Approve marks a pending entry approved, recording who and when.
func Approve(db *gorm.DB, perfumeID, approvedBy string) error {
	res := db.Model(&types.Perfume{}).Where("id = ?", perfumeID).Updates(map[string]interface{}{
		"status":      types.StatusApproved,
		"approved_by": approvedBy,
		"approved_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func Reject(db *gorm.DB, perfumeID string) error {
	res := db.Model(&types.Perfume{}).Where("id = ?", perfumeID).Update("status", types.StatusRejected)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Detail is a perfume with its tags and external URLs.
type Detail struct {
	types.Perfume
	Tags []string           `json:"tags"`
	URLs []types.PerfumeURL `json:"urls"`
}

func FindByID(db *gorm.DB, id string) (*Detail, error) {
	var p types.Perfume
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	d := Detail{Perfume: p, Tags: []string{}, URLs: []types.PerfumeURL{}}

	var tags []types.PerfumeTag
	if err := db.Where("perfume_id = ?", id).Find(&tags).Error; err != nil {
		return nil, err
	}
	for _, t := range tags {
		d.Tags = append(d.Tags, t.Tag)
	}
	if err := db.Where("perfume_id = ?", id).Find(&d.URLs).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func FindBySlug(db *gorm.DB, slug string) (*Detail, error) {
	var p types.Perfume
	if err := db.Select("id").First(&p, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return FindByID(db, p.ID)
}

// SearchParams filter the public catalog listing.
type SearchParams struct {
	Tipo     string
	Marca    string
	ParentID string
	Query    string
	Status   string
	Limit    int
	Offset   int
}

type SearchResult struct {
	Data   []types.Perfume `json:"data"`
	Total  int64           `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func Search(db *gorm.DB, p SearchParams) (*SearchResult, error) {
	if p.Status == "" {
		p.Status = types.StatusApproved
	}
	if p.Limit <= 0 {
		p.Limit = 20
	}

	q := db.Model(&types.Perfume{}).Where("status = ?", p.Status)
	if p.Tipo != "" {
		q = q.Where("tipo = ?", p.Tipo)
	}
	if p.Marca != "" {
		q = q.Where("marca = ?", p.Marca)
	}
	if p.ParentID != "" {
		q = q.Where("parent_id = ?", p.ParentID)
	}
	if p.Query != "" {
		like := "%" + p.Query + "%"
		q = q.Where("nombre LIKE ? OR marca LIKE ?", like, like)
	}

	res := SearchResult{Data: []types.Perfume{}, Limit: p.Limit, Offset: p.Offset}
	if err := q.Count(&res.Total).Error; err != nil {
		return nil, err
	}
	err := q.Order("votes_count DESC, created_at DESC").
		Limit(p.Limit).Offset(p.Offset).Find(&res.Data).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// Dupes lists approved imitations of an original, best match first.
func Dupes(db *gorm.DB, parentID string) ([]types.Perfume, error) {
	var out []types.Perfume
	err := db.Where("parent_id = ? AND status = ?", parentID, types.StatusApproved).
		Order("avg_parecido DESC, votes_count DESC").Find(&out).Error
	return out, err
}

func Brands(db *gorm.DB) ([]string, error) {
	var out []string
	err := db.Model(&types.Perfume{}).Distinct("marca").
		Where("marca <> '' AND status = ?", types.StatusApproved).
		Order("marca").Pluck("marca", &out).Error
	return out, err
}

func AddTag(db *gorm.DB, perfumeID, tag string) error {
	err := db.Create(&types.PerfumeTag{ID: uuid.NewString(), PerfumeID: perfumeID, Tag: tag}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil
	}
	return err
}

func RemoveTag(db *gorm.DB, perfumeID, tag string) error {
	return db.Delete(&types.PerfumeTag{}, "perfume_id = ? AND tag = ?", perfumeID, tag).Error
}

func AddURL(db *gorm.DB, perfumeID, tipo, url string) error {
	return db.Create(&types.PerfumeURL{ID: uuid.NewString(), PerfumeID: perfumeID, Tipo: tipo, URL: url}).Error
}

func RemoveURL(db *gorm.DB, urlID string) error {
	return db.Delete(&types.PerfumeURL{}, "id = ?", urlID).Error
}

type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

func PopularTags(db *gorm.DB, limit int) ([]TagCount, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []TagCount
	err := db.Model(&types.PerfumeTag{}).Select("tag, count(*) as count").
		Group("tag").Order("count DESC").Limit(limit).Scan(&out).Error
	return out, err
}

func strDeref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
