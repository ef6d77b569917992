package webserver

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dupelab/dupelab-api/src/api/types"
)

func newVoteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&types.Perfume{}, &types.Vote{}))
	return db
}

func u8(v uint8) *uint8 { return &v }

func castVote(t *testing.T, db *gorm.DB, perfumeID, userID, scope, groupID string, parecido, calidad *uint8) {
	t.Helper()
	require.NoError(t, db.Create(&types.Vote{
		ID:        uuid.NewString(),
		PerfumeID: perfumeID,
		UserID:    userID,
		Scope:     scope,
		GroupID:   groupID,
		Parecido:  parecido,
		Calidad:   calidad,
	}).Error)
}

func TestRecomputeAggregates(t *testing.T) {
	db := newVoteDB(t)
	p := types.Perfume{ID: uuid.NewString(), Tipo: "dupe", Nombre: "Cloud", CreatedBy: "u", Status: types.StatusApproved}
	require.NoError(t, db.Create(&p).Error)

	castVote(t, db, p.ID, "user-1", "global", "", u8(8), u8(6))
	castVote(t, db, p.ID, "user-2", "global", "", u8(6), nil)

	require.NoError(t, recomputeAggregates(db, p.ID))

	var got types.Perfume
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.InDelta(t, 7.0, got.AvgParecido, 0.001)
	assert.InDelta(t, 6.0, got.AvgCalidad, 0.001, "empty axes do not drag the average")
	assert.EqualValues(t, 2, got.VotesCount)
}

func TestRecomputeIgnoresGroupVotes(t *testing.T) {
	db := newVoteDB(t)
	p := types.Perfume{ID: uuid.NewString(), Tipo: "dupe", Nombre: "Cloud", CreatedBy: "u", Status: types.StatusApproved}
	require.NoError(t, db.Create(&p).Error)

	castVote(t, db, p.ID, "user-1", "global", "", u8(10), nil)
	castVote(t, db, p.ID, "user-1", "group", "group-1", u8(2), nil)

	require.NoError(t, recomputeAggregates(db, p.ID))

	var got types.Perfume
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.InDelta(t, 10.0, got.AvgParecido, 0.001)
	assert.EqualValues(t, 1, got.VotesCount)
}

func TestRecomputeAfterLastVoteRemoved(t *testing.T) {
	db := newVoteDB(t)
	p := types.Perfume{ID: uuid.NewString(), Tipo: "original", Nombre: "Khamrah", CreatedBy: "u", Status: types.StatusApproved}
	require.NoError(t, db.Create(&p).Error)

	castVote(t, db, p.ID, "user-1", "global", "", nil, u8(9))
	require.NoError(t, recomputeAggregates(db, p.ID))

	require.NoError(t, db.Delete(&types.Vote{}, "perfume_id = ?", p.ID).Error)
	require.NoError(t, recomputeAggregates(db, p.ID))

	var got types.Perfume
	require.NoError(t, db.First(&got, "id = ?", p.ID).Error)
	assert.Zero(t, got.AvgCalidad)
	assert.Zero(t, got.VotesCount)
}

func TestGlobalVoteUniquePerUser(t *testing.T) {
	db := newVoteDB(t)
	p := types.Perfume{ID: uuid.NewString(), Tipo: "original", Nombre: "Khamrah", CreatedBy: "u", Status: types.StatusApproved}
	require.NoError(t, db.Create(&p).Error)

	castVote(t, db, p.ID, "user-1", "global", "", nil, u8(9))
	err := db.Create(&types.Vote{
		ID:        uuid.NewString(),
		PerfumeID: p.ID,
		UserID:    "user-1",
		Scope:     "global",
		GroupID:   "",
		Calidad:   u8(5),
	}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey, "second global vote for the same user collides")
}
