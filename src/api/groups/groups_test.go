package groups

import (
	"testing"

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
	require.NoError(t, db.AutoMigrate(&types.Group{}, &types.GroupMember{}))
	return db
}

func TestCreateWritesOwnerMembership(t *testing.T) {
	db := newTestDB(t)

	g, err := Create(db, CreateParams{Name: "Cazadores de Dupes", OwnerID: "owner-1"})
	require.NoError(t, err)
	assert.Len(t, g.InviteCode, 8)

	role, err := membership.GroupRole(db, g.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, membership.RoleOwner, role, "creator is owner from the first commit")
}

func TestJoinTwiceConflicts(t *testing.T) {
	db := newTestDB(t)
	g, err := Create(db, CreateParams{Name: "Cazadores", OwnerID: "owner-1"})
	require.NoError(t, err)

	require.NoError(t, AddMember(db, g.ID, "user-2", membership.RoleMember))
	err = AddMember(db, g.ID, "user-2", membership.RoleMember)
	assert.ErrorIs(t, err, ErrDuplicateMember)

	// The owner joining again is the same conflict.
	err = AddMember(db, g.ID, "owner-1", membership.RoleMember)
	assert.ErrorIs(t, err, ErrDuplicateMember)
}

func TestFindByInviteCode(t *testing.T) {
	db := newTestDB(t)
	g, err := Create(db, CreateParams{Name: "Cazadores", OwnerID: "owner-1"})
	require.NoError(t, err)

	found, err := FindByInviteCode(db, g.InviteCode)
	require.NoError(t, err)
	assert.Equal(t, g.ID, found.ID)

	_, err = FindByInviteCode(db, "WRONGCOD")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegenerateInviteCode(t *testing.T) {
	db := newTestDB(t)
	g, err := Create(db, CreateParams{Name: "Cazadores", OwnerID: "owner-1"})
	require.NoError(t, err)

	code, err := RegenerateInviteCode(db, g.ID)
	require.NoError(t, err)
	assert.NotEqual(t, g.InviteCode, code)

	_, err = FindByInviteCode(db, g.InviteCode)
	assert.ErrorIs(t, err, ErrNotFound, "old code stops working")

	_, err = RegenerateInviteCode(db, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindBySlugRequiresPublicRead(t *testing.T) {
	db := newTestDB(t)
	slugA := "cazadores"
	_, err := Create(db, CreateParams{Name: "A", OwnerID: "o1", PublicRead: true, PublicSlug: &slugA})
	require.NoError(t, err)
	slugB := "privados"
	_, err = Create(db, CreateParams{Name: "B", OwnerID: "o2", PublicRead: false, PublicSlug: &slugB})
	require.NoError(t, err)

	found, err := FindBySlug(db, "cazadores")
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)

	_, err = FindBySlug(db, "privados")
	assert.ErrorIs(t, err, ErrNotFound, "private groups are not found, not forbidden")
}

func TestOwnerCannotLeave(t *testing.T) {
	db := newTestDB(t)
	g, err := Create(db, CreateParams{Name: "Cazadores", OwnerID: "owner-1"})
	require.NoError(t, err)
	require.NoError(t, AddMember(db, g.ID, "user-2", membership.RoleMember))

	assert.ErrorIs(t, Leave(db, g.ID, "owner-1"), ErrOwnerCannotLeave)

	require.NoError(t, Leave(db, g.ID, "user-2"))
	_, err = membership.GroupRole(db, g.ID, "user-2")
	assert.ErrorIs(t, err, membership.ErrNotMember)
}

func TestUpdateMemberRole(t *testing.T) {
	db := newTestDB(t)
	g, err := Create(db, CreateParams{Name: "Cazadores", OwnerID: "owner-1"})
	require.NoError(t, err)
	require.NoError(t, AddMember(db, g.ID, "user-2", membership.RoleViewer))

	require.NoError(t, UpdateMemberRole(db, g.ID, "user-2", membership.RoleEditor))
	role, err := membership.GroupRole(db, g.ID, "user-2")
	require.NoError(t, err)
	assert.Equal(t, membership.RoleEditor, role)

	err = UpdateMemberRole(db, g.ID, "stranger", membership.RoleEditor)
	assert.ErrorIs(t, err, membership.ErrNotMember)
}

func TestMine(t *testing.T) {
	db := newTestDB(t)
	g1, err := Create(db, CreateParams{Name: "Mios", OwnerID: "user-1"})
	require.NoError(t, err)
	g2, err := Create(db, CreateParams{Name: "Ajenos", OwnerID: "user-2"})
	require.NoError(t, err)
	require.NoError(t, AddMember(db, g2.ID, "user-1", membership.RoleViewer))

	mine, err := Mine(db, "user-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	roles := map[string]string{}
	for _, m := range mine {
		roles[m.ID] = m.UserRole
	}
	assert.Equal(t, "owner", roles[g1.ID])
	assert.Equal(t, "viewer", roles[g2.ID])
}

func TestDeleteRemovesMemberships(t *testing.T) {
	db := newTestDB(t)
	g, err := Create(db, CreateParams{Name: "Cazadores", OwnerID: "owner-1"})
	require.NoError(t, err)
	require.NoError(t, AddMember(db, g.ID, "user-2", membership.RoleMember))

	require.NoError(t, Delete(db, g.ID))

	var count int64
	db.Model(&types.GroupMember{}).Where("group_id = ?", g.ID).Count(&count)
	assert.Zero(t, count)
	_, err = FindByID(db, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
