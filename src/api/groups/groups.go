// Group lifecycle and membership maintenance. Creation writes the group row
// and the owner's membership in one transaction: a group without an owner
// member must never be observable.
package groups

import (
	"crypto/rand"
	"errors"

	"github.com/dupelab/dupelab-api/src/api/membership"
	"github.com/dupelab/dupelab-api/src/api/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("group not found")
	ErrDuplicateMember = errors.New("already a member")
	ErrOwnerCannotLeave = errors.New("owner cannot leave the group")
)

const inviteCodeChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func newInviteCode() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	for i := range b {
		b[i] = inviteCodeChars[int(b[i])%len(inviteCodeChars)]
	}
	return string(b)
}

type CreateParams struct {
	Name        string
	Description string
	OwnerID     string
	PublicRead  bool
	PublicSlug  *string
}

func Create(db *gorm.DB, p CreateParams) (*types.Group, error) {
	g := types.Group{
		ID:          uuid.NewString(),
		Name:        p.Name,
		Description: p.Description,
		OwnerID:     p.OwnerID,
		InviteCode:  newInviteCode(),
		PublicRead:  p.PublicRead,
		PublicSlug:  p.PublicSlug,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&g).Error; err != nil {
			return err
		}
		return tx.Create(&types.GroupMember{
			ID:      uuid.NewString(),
			GroupID: g.ID,
			UserID:  p.OwnerID,
			Role:    string(membership.RoleOwner),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func FindByID(db *gorm.DB, id string) (*types.Group, error) {
	var g types.Group
	if err := db.First(&g, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func FindByInviteCode(db *gorm.DB, code string) (*types.Group, error) {
	var g types.Group
	if err := db.First(&g, "invite_code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// FindBySlug resolves a public group page; groups that never opted into
// public reads are not found, not forbidden.
func FindBySlug(db *gorm.DB, slug string) (*types.Group, error) {
	var g types.Group
	err := db.First(&g, "public_slug = ? AND public_read = ?", slug, true).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

// Mine lists the groups a user belongs to, with the user's role attached.
type MemberGroup struct {
	types.Group
	UserRole string `json:"user_role"`
}

func Mine(db *gorm.DB, userID string) ([]MemberGroup, error) {
	out := []MemberGroup{}
	err := db.Table("groups").
		Select("groups.*, group_members.role AS user_role").
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("group_members.joined_at DESC").
		Scan(&out).Error
	return out, err
}

type UpdateParams struct {
	Name        *string
	Description *string
	PublicRead  *bool
	PublicSlug  *string
}

func Update(db *gorm.DB, id string, p UpdateParams) (*types.Group, error) {
	updates := map[string]interface{}{}
	if p.Name != nil {
		updates["name"] = *p.Name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.PublicRead != nil {
		updates["public_read"] = *p.PublicRead
	}
	if p.PublicSlug != nil {
		updates["public_slug"] = *p.PublicSlug
	}
	if len(updates) > 0 {
		if err := db.Model(&types.Group{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return FindByID(db, id)
}

func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&types.GroupMember{}, "group_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&types.Group{}, "id = ?", id).Error
	})
}

func RegenerateInviteCode(db *gorm.DB, id string) (string, error) {
	code := newInviteCode()
	res := db.Model(&types.Group{}).Where("id = ?", id).Update("invite_code", code)
	if res.Error != nil {
		return "", res.Error
	}
	if res.RowsAffected == 0 {
		return "", ErrNotFound
	}
	return code, nil
}

// AddMember inserts a membership row, translating the unique-key violation
// into ErrDuplicateMember so joining twice reads as a conflict, not a store
// failure.
func AddMember(db *gorm.DB, groupID, userID string, role membership.Role) error {
	err := db.Create(&types.GroupMember{
		ID:      uuid.NewString(),
		GroupID: groupID,
		UserID:  userID,
		Role:    string(role),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateMember
	}
	return err
}

func Members(db *gorm.DB, groupID string) ([]types.GroupMember, error) {
	out := []types.GroupMember{}
	err := db.Where("group_id = ?", groupID).Order("role, joined_at").Find(&out).Error
	return out, err
}

func UpdateMemberRole(db *gorm.DB, groupID, userID string, role membership.Role) error {
	res := db.Model(&types.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Update("role", string(role))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return membership.ErrNotMember
	}
	return nil
}

func RemoveMember(db *gorm.DB, groupID, userID string) error {
	return db.Delete(&types.GroupMember{}, "group_id = ? AND user_id = ?", groupID, userID).Error
}

// Leave removes the caller's own membership. The owner must transfer or
// delete the group instead.
func Leave(db *gorm.DB, groupID, userID string) error {
	g, err := FindByID(db, groupID)
	if err != nil {
		return err
	}
	if g.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	return RemoveMember(db, groupID, userID)
}
