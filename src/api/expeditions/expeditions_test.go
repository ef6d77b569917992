package expeditions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/dupelab/dupelab-api/src/api/membership"
	"github.com/dupelab/dupelab-api/src/api/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Expedition{}, &types.ExpeditionMember{},
		&types.ExpeditionItem{}, &types.ExpeditionItemNote{},
	))
	return db
}

func seed(t *testing.T, db *gorm.DB, owner string) *types.Expedition {
	t.Helper()
	e, err := Create(db, CreateParams{Nombre: "Black Friday", Fecha: time.Now(), OwnerID: owner})
	require.NoError(t, err)
	return e
}

func TestCreateDefaults(t *testing.T) {
	db := newTestDB(t)
	gid := "group-1"

	e, err := Create(db, CreateParams{Nombre: "Solo", Fecha: time.Now(), GroupID: &gid, OwnerID: "owner-1"})
	require.NoError(t, err)
	assert.Equal(t, "personal", e.Visibility)
	assert.Nil(t, e.GroupID, "personal expeditions drop any group id")
	assert.Equal(t, "planificando", e.Estado)

	role, err := membership.ExpeditionRole(db, e.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, membership.RoleOwner, role)
}

func TestCreateGroupVisibility(t *testing.T) {
	db := newTestDB(t)
	gid := "group-1"

	e, err := Create(db, CreateParams{
		Nombre: "Salida", Fecha: time.Now(), Visibility: "group", GroupID: &gid, OwnerID: "owner-1",
	})
	require.NoError(t, err)
	require.NotNil(t, e.GroupID)
	assert.Equal(t, gid, *e.GroupID)

	list, err := ByGroup(db, gid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, e.ID, list[0].ID)
}

func TestMineIncludesInvited(t *testing.T) {
	db := newTestDB(t)
	owned := seed(t, db, "user-1")
	invited := seed(t, db, "user-2")
	require.NoError(t, AddMember(db, invited.ID, "user-1", membership.RoleViewer))
	seed(t, db, "user-3")

	mine, err := Mine(db, "user-1", "", "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	ids := map[string]bool{mine[0].ID: true, mine[1].ID: true}
	assert.True(t, ids[owned.ID])
	assert.True(t, ids[invited.ID])
}

func TestCloseSetsClosedAt(t *testing.T) {
	db := newTestDB(t)
	e := seed(t, db, "owner-1")

	estado := "cerrada"
	updated, err := Update(db, e.ID, UpdateParams{Estado: &estado})
	require.NoError(t, err)
	assert.Equal(t, "cerrada", updated.Estado)
	assert.NotNil(t, updated.ClosedAt)
}

func TestItems(t *testing.T) {
	db := newTestDB(t)
	e := seed(t, db, "owner-1")

	item, err := AddItem(db, e.ID, nil, "Khamrah tester", "owner-1")
	require.NoError(t, err)
	assert.Equal(t, "pendiente", item.Status)

	item, err = UpdateItemStatus(db, item.ID, "comprado")
	require.NoError(t, err)
	assert.Equal(t, "comprado", item.Status)

	_, err = UpdateItemStatus(db, "missing", "probado")
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRemoveItemCascadesNotes(t *testing.T) {
	db := newTestDB(t)
	e := seed(t, db, "owner-1")
	item, err := AddItem(db, e.ID, nil, "Khamrah tester", "owner-1")
	require.NoError(t, err)
	rating := uint8(8)
	_, err = AddItemNote(db, item.ID, "owner-1", "huele a postre", &rating)
	require.NoError(t, err)

	require.NoError(t, RemoveItem(db, item.ID))

	var count int64
	db.Model(&types.ExpeditionItemNote{}).Where("item_id = ?", item.ID).Count(&count)
	assert.Zero(t, count)
}

func TestDeleteCascades(t *testing.T) {
	db := newTestDB(t)
	e := seed(t, db, "owner-1")
	require.NoError(t, AddMember(db, e.ID, "user-2", membership.RoleEditor))
	item, err := AddItem(db, e.ID, nil, "Khamrah tester", "owner-1")
	require.NoError(t, err)
	_, err = AddItemNote(db, item.ID, "user-2", "probado en tienda", nil)
	require.NoError(t, err)

	require.NoError(t, Delete(db, e.ID))

	var count int64
	db.Model(&types.Expedition{}).Where("id = ?", e.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&types.ExpeditionMember{}).Where("expedition_id = ?", e.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&types.ExpeditionItem{}).Where("expedition_id = ?", e.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&types.ExpeditionItemNote{}).Where("item_id = ?", item.ID).Count(&count)
	assert.Zero(t, count)
}

func TestAddMemberTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	e := seed(t, db, "owner-1")

	require.NoError(t, AddMember(db, e.ID, "user-2", membership.RoleViewer))
	assert.ErrorIs(t, AddMember(db, e.ID, "user-2", membership.RoleEditor), ErrDuplicateMember)
}
