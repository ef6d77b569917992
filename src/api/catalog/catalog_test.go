package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dupelab/dupelab-api/src/api/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.Perfume{}, &types.PerfumeTag{}, &types.PerfumeURL{}))
	return db
}

func str(s string) *string { return &s }

func mustInsertOriginal(t *testing.T, db *gorm.DB, nombre, marca string) *types.Perfume {
	t.Helper()
	p, err := InsertApproved(db, Fields{
		Tipo:   str("original"),
		Nombre: str(nombre),
		Marca:  str(marca),
	}, "user-1", "mod-1")
	require.NoError(t, err)
	return p
}

func TestInsertValidation(t *testing.T) {
	db := newTestDB(t)

	_, err := InsertApproved(db, Fields{Tipo: str("original")}, "u", "m")
	assert.ErrorIs(t, err, ErrInvalid, "nombre is required")

	_, err = InsertApproved(db, Fields{Tipo: str("eau"), Nombre: str("X")}, "u", "m")
	assert.ErrorIs(t, err, ErrInvalid, "tipo must be original or dupe")

	_, err = InsertApproved(db, Fields{Tipo: str("dupe"), Nombre: str("X")}, "u", "m")
	assert.ErrorIs(t, err, ErrInvalid, "dupe without parentId")

	_, err = InsertApproved(db, Fields{
		Tipo: str("dupe"), Nombre: str("X"), ParentID: str("missing"),
	}, "u", "m")
	assert.ErrorIs(t, err, ErrInvalid, "dupe parent must exist")
}

func TestInsertDupeWithParent(t *testing.T) {
	db := newTestDB(t)
	parent := mustInsertOriginal(t, db, "Baccarat Rouge 540", "MFK")

	dupe, err := InsertApproved(db, Fields{
		Tipo:     str("dupe"),
		Nombre:   str("Cloud"),
		Marca:    str("Ariana Grande"),
		ParentID: &parent.ID,
	}, "user-2", "mod-1")
	require.NoError(t, err)
	assert.Equal(t, parent.ID, *dupe.ParentID)
	assert.Equal(t, types.StatusApproved, dupe.Status)
	assert.Equal(t, "user-2", dupe.CreatedBy)
	require.NotNil(t, dupe.ApprovedBy)
	assert.Equal(t, "mod-1", *dupe.ApprovedBy)
	assert.NotNil(t, dupe.ApprovedAt)
}

func TestInsertPendingHasNoApproval(t *testing.T) {
	db := newTestDB(t)

	p, err := InsertPending(db, Fields{Tipo: str("original"), Nombre: str("Khamrah")}, "user-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusPending, p.Status)
	assert.Nil(t, p.ApprovedBy)
	assert.Nil(t, p.ApprovedAt)
}

func TestSlug(t *testing.T) {
	s := Slug("Khamrah Qahwa", "Lattafa")
	assert.True(t, strings.HasPrefix(s, "lattafa-khamrah-qahwa-"), s)

	s = Slug("Árbol Ñoño", "")
	assert.True(t, strings.HasPrefix(s, "arbol-nono-"), s)

	s = Slug("  Côte d'Azur!! ", "")
	assert.False(t, strings.HasPrefix(s, "-"), s)
	assert.NotContains(t, s, "--", s)
}

func TestApplyEditPartial(t *testing.T) {
	db := newTestDB(t)
	p := mustInsertOriginal(t, db, "Khamrah", "Lattafa")

	ml := uint16(100)
	err := ApplyEdit(db, p.ID, Fields{ML: &ml})
	require.NoError(t, err)

	var got types.Perfume
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, uint16(100), got.ML)
	assert.Equal(t, "Khamrah", got.Nombre, "omitted fields keep prior values")
	assert.Equal(t, "Lattafa", got.Marca)
}

func TestApplyEditRejectsSelfParent(t *testing.T) {
	db := newTestDB(t)
	p := mustInsertOriginal(t, db, "Khamrah", "Lattafa")

	err := ApplyEdit(db, p.ID, Fields{ParentID: &p.ID})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestApplyEditMissingTarget(t *testing.T) {
	db := newTestDB(t)
	err := ApplyEdit(db, "does-not-exist", Fields{Nombre: str("X")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyEditEmptyIsNoop(t *testing.T) {
	db := newTestDB(t)
	assert.NoError(t, ApplyEdit(db, "does-not-exist", Fields{}))
}

func TestRemove(t *testing.T) {
	db := newTestDB(t)
	p := mustInsertOriginal(t, db, "Khamrah", "Lattafa")
	require.NoError(t, AddTag(db, p.ID, "dulce"))
	require.NoError(t, AddURL(db, p.ID, "tienda", "https://example.com/khamrah"))

	require.NoError(t, Remove(db, p.ID))

	var count int64
	db.Model(&types.Perfume{}).Where("id = ?", p.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&types.PerfumeTag{}).Where("perfume_id = ?", p.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&types.PerfumeURL{}).Where("perfume_id = ?", p.ID).Count(&count)
	assert.Zero(t, count)

	assert.NoError(t, Remove(db, p.ID), "removing an absent target succeeds")
	assert.NoError(t, Remove(db, "never-existed"))
}

func TestSearchDefaultsToApproved(t *testing.T) {
	db := newTestDB(t)
	mustInsertOriginal(t, db, "Khamrah", "Lattafa")
	_, err := InsertPending(db, Fields{Tipo: str("original"), Nombre: str("Hidden")}, "u")
	require.NoError(t, err)

	res, err := Search(db, SearchParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Khamrah", res.Data[0].Nombre)
}

func TestSearchFilters(t *testing.T) {
	db := newTestDB(t)
	mustInsertOriginal(t, db, "Khamrah", "Lattafa")
	mustInsertOriginal(t, db, "Asad", "Lattafa")
	mustInsertOriginal(t, db, "Sauvage", "Dior")

	res, err := Search(db, SearchParams{Marca: "Lattafa"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Total)

	res, err = Search(db, SearchParams{Query: "sauva"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, res.Total)
}

func TestDupesOnlyApproved(t *testing.T) {
	db := newTestDB(t)
	parent := mustInsertOriginal(t, db, "Baccarat Rouge 540", "MFK")

	_, err := InsertApproved(db, Fields{
		Tipo: str("dupe"), Nombre: str("Approved Dupe"), ParentID: &parent.ID,
	}, "u", "m")
	require.NoError(t, err)
	_, err = InsertPending(db, Fields{
		Tipo: str("dupe"), Nombre: str("Pending Dupe"), ParentID: &parent.ID,
	}, "u")
	require.NoError(t, err)

	dupes, err := Dupes(db, parent.ID)
	require.NoError(t, err)
	require.Len(t, dupes, 1)
	assert.Equal(t, "Approved Dupe", dupes[0].Nombre)
}

func TestAddTagIdempotent(t *testing.T) {
	db := newTestDB(t)
	p := mustInsertOriginal(t, db, "Khamrah", "Lattafa")

	require.NoError(t, AddTag(db, p.ID, "dulce"))
	require.NoError(t, AddTag(db, p.ID, "dulce"), "duplicate tag is swallowed")

	var count int64
	db.Model(&types.PerfumeTag{}).Where("perfume_id = ?", p.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestApproveAndReject(t *testing.T) {
	db := newTestDB(t)
	p, err := InsertPending(db, Fields{Tipo: str("original"), Nombre: str("Khamrah")}, "u")
	require.NoError(t, err)

	require.NoError(t, Approve(db, p.ID, "mod-1"))
	var got types.Perfume
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Equal(t, types.StatusApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, "mod-1", *got.ApprovedBy)

	assert.ErrorIs(t, Approve(db, "missing", "mod-1"), ErrNotFound)
	assert.ErrorIs(t, Reject(db, "missing"), ErrNotFound)
}
