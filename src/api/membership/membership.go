// Role gate for group- and expedition-scoped resources. Membership rows carry
// a role tag; gates compare the resolved role against an allowed set. The
// global moderator flag is a separate authorization axis and never consulted
// here.
package membership

import (
	"errors"

	"github.com/dupelab/dupelab-api/src/api/types"
	"gorm.io/gorm"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// Explicit ranking: owner > editor > member > viewer.
var roleRank = map[Role]int{
	RoleOwner:  4,
	RoleEditor: 3,
	RoleMember: 2,
	RoleViewer: 1,
}

func (r Role) Valid() bool { return roleRank[r] != 0 }

var (
	ErrNotFound  = errors.New("resource not found")
	ErrNotMember = errors.New("not a member")
	ErrForbidden = errors.New("insufficient permission")
)

// GroupRole resolves the caller's role in a group. ErrNotFound when the group
// does not exist, ErrNotMember when no membership row exists.
func GroupRole(db *gorm.DB, groupID, userID string) (Role, error) {
	var group types.Group
	if err := db.Select("id").First(&group, "id = ?", groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	var member types.GroupMember
	err := db.First(&member, "group_id = ? AND user_id = ?", groupID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotMember
	}
	if err != nil {
		return "", err
	}
	return Role(member.Role), nil
}

// ExpeditionRole resolves the caller's role in an expedition. The recorded
// owner is owner even without a membership row: ownership is authoritative,
// membership is supplementary.
func ExpeditionRole(db *gorm.DB, expeditionID, userID string) (Role, error) {
	var exp types.Expedition
	if err := db.First(&exp, "id = ?", expeditionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if exp.OwnerID == userID {
		return RoleOwner, nil
	}

	var member types.ExpeditionMember
	err := db.First(&member, "expedition_id = ? AND user_id = ?", expeditionID, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotMember
	}
	if err != nil {
		return "", err
	}
	return Role(member.Role), nil
}

// CheckAllowed reports ErrForbidden unless role is in the allowed set.
func CheckAllowed(role Role, allowed ...Role) error {
	for _, a := range allowed {
		if role == a {
			return nil
		}
	}
	return ErrForbidden
}
