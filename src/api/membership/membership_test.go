package membership

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

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.Group{}, &types.GroupMember{},
		&types.Expedition{}, &types.ExpeditionMember{},
	))
	return db
}

func seedGroup(t *testing.T, db *gorm.DB, ownerID string) *types.Group {
	t.Helper()
	g := types.Group{ID: uuid.NewString(), Name: "Cazadores", OwnerID: ownerID, InviteCode: uuid.NewString()[:8]}
	require.NoError(t, db.Create(&g).Error)
	require.NoError(t, db.Create(&types.GroupMember{
		ID: uuid.NewString(), GroupID: g.ID, UserID: ownerID, Role: string(RoleOwner),
	}).Error)
	return &g
}

func TestCheckAllowed(t *testing.T) {
	cases := []struct {
		role    Role
		allowed []Role
		ok      bool
	}{
		{RoleOwner, []Role{RoleOwner}, true},
		{RoleOwner, []Role{RoleOwner, RoleEditor}, true},
		{RoleEditor, []Role{RoleOwner}, false},
		{RoleEditor, []Role{RoleOwner, RoleEditor}, true},
		{RoleMember, []Role{RoleOwner, RoleEditor}, false},
		{RoleMember, []Role{RoleOwner, RoleEditor, RoleMember}, true},
		{RoleViewer, []Role{RoleOwner, RoleEditor, RoleMember}, false},
		{RoleViewer, []Role{RoleOwner, RoleEditor, RoleMember, RoleViewer}, true},
		{Role(""), []Role{RoleViewer}, false},
	}
	for _, tc := range cases {
		err := CheckAllowed(tc.role, tc.allowed...)
		if tc.ok {
			assert.NoError(t, err, "role %q allowed %v", tc.role, tc.allowed)
		} else {
			assert.ErrorIs(t, err, ErrForbidden, "role %q allowed %v", tc.role, tc.allowed)
		}
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleOwner.Valid())
	assert.True(t, RoleViewer.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}

func TestGroupRole(t *testing.T) {
	db := newTestDB(t)
	g := seedGroup(t, db, "owner-1")
	require.NoError(t, db.Create(&types.GroupMember{
		ID: uuid.NewString(), GroupID: g.ID, UserID: "viewer-1", Role: string(RoleViewer),
	}).Error)

	role, err := GroupRole(db, g.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, role)

	role, err = GroupRole(db, g.ID, "viewer-1")
	require.NoError(t, err)
	assert.Equal(t, RoleViewer, role)

	_, err = GroupRole(db, g.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = GroupRole(db, "missing-group", "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExpeditionRoleImplicitOwner(t *testing.T) {
	db := newTestDB(t)
	e := types.Expedition{ID: uuid.NewString(), Nombre: "Black Friday", OwnerID: "owner-1"}
	require.NoError(t, db.Create(&e).Error)

	// No membership row at all for the owner.
	role, err := ExpeditionRole(db, e.ID, "owner-1")
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, role)

	require.NoError(t, db.Create(&types.ExpeditionMember{
		ID: uuid.NewString(), ExpeditionID: e.ID, UserID: "helper-1", Role: string(RoleEditor),
	}).Error)
	role, err = ExpeditionRole(db, e.ID, "helper-1")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, role)

	_, err = ExpeditionRole(db, e.ID, "stranger")
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = ExpeditionRole(db, "missing", "owner-1")
	assert.ErrorIs(t, err, ErrNotFound)
}
