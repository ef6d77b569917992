// Expedition lifecycle: shopping trips with their own member roster, item
// checklist and per-item notes. Creation is transactional like group
// creation: expedition row plus owner membership in one commit.
package expeditions

import (
	"errors"
	"time"

	"github.com/dupelab/dupelab-api/src/api/membership"
	"github.com/dupelab/dupelab-api/src/api/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("expedition not found")
	ErrItemNotFound    = errors.New("expedition item not found")
	ErrDuplicateMember = errors.New("already a member")
)

type CreateParams struct {
	Nombre     string
	Fecha      time.Time
	Visibility string
	GroupID    *string
	OwnerID    string
}

func Create(db *gorm.DB, p CreateParams) (*types.Expedition, error) {
	if p.Visibility == "" {
		p.Visibility = "personal"
	}
	if p.Visibility != "group" {
		p.GroupID = nil
	}
	e := types.Expedition{
		ID:         uuid.NewString(),
		Nombre:     p.Nombre,
		Fecha:      p.Fecha,
		Visibility: p.Visibility,
		GroupID:    p.GroupID,
		OwnerID:    p.OwnerID,
		Estado:     "planificando",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&e).Error; err != nil {
			return err
		}
		return tx.Create(&types.ExpeditionMember{
			ID:           uuid.NewString(),
			ExpeditionID: e.ID,
			UserID:       p.OwnerID,
			Role:         string(membership.RoleOwner),
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func FindByID(db *gorm.DB, id string) (*types.Expedition, error) {
	var e types.Expedition
	if err := db.First(&e, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

// Mine lists expeditions the user owns or was invited to, with optional
// estado/visibility filters.
func Mine(db *gorm.DB, userID, estado, visibility string) ([]types.Expedition, error) {
	q := db.Model(&types.Expedition{}).Distinct("expeditions.*").
		Joins("LEFT JOIN expedition_members ON expedition_members.expedition_id = expeditions.id").
		Where("expeditions.owner_id = ? OR expedition_members.user_id = ?", userID, userID)
	if estado != "" {
		q = q.Where("expeditions.estado = ?", estado)
	}
	if visibility != "" {
		q = q.Where("expeditions.visibility = ?", visibility)
	}
	out := []types.Expedition{}
	err := q.Order("expeditions.fecha DESC").Find(&out).Error
	return out, err
}

func ByGroup(db *gorm.DB, groupID string) ([]types.Expedition, error) {
	out := []types.Expedition{}
	err := db.Where("group_id = ? AND visibility = ?", groupID, "group").
		Order("fecha DESC").Find(&out).Error
	return out, err
}

type UpdateParams struct {
	Nombre *string
	Fecha  *time.Time
	Estado *string
}

func Update(db *gorm.DB, id string, p UpdateParams) (*types.Expedition, error) {
	updates := map[string]interface{}{}
	if p.Nombre != nil {
		updates["nombre"] = *p.Nombre
	}
	if p.Fecha != nil {
		updates["fecha"] = *p.Fecha
	}
	if p.Estado != nil {
		updates["estado"] = *p.Estado
		if *p.Estado == "cerrada" {
			updates["closed_at"] = time.Now()
		}
	}
	if len(updates) > 0 {
		if err := db.Model(&types.Expedition{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return FindByID(db, id)
}

func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var itemIDs []string
		if err := tx.Model(&types.ExpeditionItem{}).Where("expedition_id = ?", id).
			Pluck("id", &itemIDs).Error; err != nil {
			return err
		}
		if len(itemIDs) > 0 {
			if err := tx.Delete(&types.ExpeditionItemNote{}, "item_id IN ?", itemIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&types.ExpeditionItem{}, "expedition_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&types.ExpeditionMember{}, "expedition_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&types.Expedition{}, "id = ?", id).Error
	})
}

func Members(db *gorm.DB, expeditionID string) ([]types.ExpeditionMember, error) {
	out := []types.ExpeditionMember{}
	err := db.Where("expedition_id = ?", expeditionID).Order("role, joined_at").Find(&out).Error
	return out, err
}

func AddMember(db *gorm.DB, expeditionID, userID string, role membership.Role) error {
	err := db.Create(&types.ExpeditionMember{
		ID:           uuid.NewString(),
		ExpeditionID: expeditionID,
		UserID:       userID,
		Role:         string(role),
	}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateMember
	}
	return err
}

func RemoveMember(db *gorm.DB, expeditionID, userID string) error {
	return db.Delete(&types.ExpeditionMember{}, "expedition_id = ? AND user_id = ?", expeditionID, userID).Error
}

func Items(db *gorm.DB, expeditionID string) ([]types.ExpeditionItem, error) {
	out := []types.ExpeditionItem{}
	err := db.Where("expedition_id = ?", expeditionID).Order("added_at DESC").Find(&out).Error
	return out, err
}

func AddItem(db *gorm.DB, expeditionID string, perfumeID *string, nombreManual, addedBy string) (*types.ExpeditionItem, error) {
	item := types.ExpeditionItem{
		ID:           uuid.NewString(),
		ExpeditionID: expeditionID,
		PerfumeID:    perfumeID,
		NombreManual: nombreManual,
		Status:       "pendiente",
		AddedBy:      addedBy,
	}
	if err := db.Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func UpdateItemStatus(db *gorm.DB, itemID, status string) (*types.ExpeditionItem, error) {
	res := db.Model(&types.ExpeditionItem{}).Where("id = ?", itemID).Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrItemNotFound
	}
	var item types.ExpeditionItem
	if err := db.First(&item, "id = ?", itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func RemoveItem(db *gorm.DB, itemID string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&types.ExpeditionItemNote{}, "item_id = ?", itemID).Error; err != nil {
			return err
		}
		return tx.Delete(&types.ExpeditionItem{}, "id = ?", itemID).Error
	})
}

func ItemNotes(db *gorm.DB, itemID string) ([]types.ExpeditionItemNote, error) {
	out := []types.ExpeditionItemNote{}
	err := db.Where("item_id = ?", itemID).Order("created_at DESC").Find(&out).Error
	return out, err
}

func AddItemNote(db *gorm.DB, itemID, userID, nota string, rating *uint8) (*types.ExpeditionItemNote, error) {
	note := types.ExpeditionItemNote{
		ID:     uuid.NewString(),
		ItemID: itemID,
		UserID: userID,
		Nota:   nota,
		Rating: rating,
	}
	if err := db.Create(&note).Error; err != nil {
		return nil, err
	}
	return &note, nil
}

func RemoveItemNote(db *gorm.DB, noteID string) error {
	return db.Delete(&types.ExpeditionItemNote{}, "id = ?", noteID).Error
}
