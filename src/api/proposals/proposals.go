// Proposal workflow: users submit catalog changes, moderators decide them.
// A proposal transitions exactly once, pending -> approved or pending ->
// rejected. Approval replays the proposed action against the catalog inside
// the same transaction that flips the status, so a failed mutation never
// leaves an approved proposal behind.
package proposals

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dupelab/dupelab-api/src/api/catalog"
	"github.com/dupelab/dupelab-api/src/api/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("proposal not found")
	ErrForbidden      = errors.New("not allowed to view this proposal")
	ErrAlreadyDecided = errors.New("proposal already decided")
	ErrInvalid        = errors.New("invalid proposal")
)

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// Submit records a pending proposal. Edit and delete proposals must name
// their target perfume; relying on caller discipline here invites orphan
// proposals that can never be applied.
func Submit(db *gorm.DB, action string, perfumeID *string, fields catalog.Fields, reason, proposedBy string) (*types.Proposal, error) {
	switch action {
	case types.ActionCreate, types.ActionEdit, types.ActionDelete:
	default:
		return nil, fmt.Errorf("%w: unknown action %q", ErrInvalid, action)
	}
	if action != types.ActionCreate && (perfumeID == nil || *perfumeID == "") {
		return nil, fmt.Errorf("%w: %s proposals need a perfumeId", ErrInvalid, action)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	p := types.Proposal{
		ID:         uuid.NewString(),
		PerfumeID:  perfumeID,
		Action:     action,
		Data:       data,
		Reason:     reason,
		Status:     types.StatusPending,
		ProposedBy: proposedBy,
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Decide approves or rejects a pending proposal. The status flip is a
// conditional update on status=pending; zero rows affected means another
// reviewer got there first and the call fails with ErrAlreadyDecided rather
// than being treated as a no-op.
func Decide(db *gorm.DB, id, decision, reviewerID, notes string) (*types.Proposal, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return nil, fmt.Errorf("%w: unknown decision %q", ErrInvalid, decision)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var p types.Proposal
		if err := tx.First(&p, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		newStatus := types.StatusApproved
		if decision == DecisionReject {
			newStatus = types.StatusRejected
		}
		res := tx.Model(&types.Proposal{}).
			Where("id = ? AND status = ?", id, types.StatusPending).
			Updates(map[string]interface{}{
				"status":       newStatus,
				"reviewed_by":  reviewerID,
				"reviewed_at":  time.Now(),
				"review_notes": notes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyDecided
		}

		if decision == DecisionReject {
			return nil
		}
		return applyAction(tx, &p, reviewerID)
	})
	if err != nil {
		return nil, err
	}

	var out types.Proposal
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func applyAction(tx *gorm.DB, p *types.Proposal, reviewerID string) error {
	var fields catalog.Fields
	if len(p.Data) > 0 {
		if err := json.Unmarshal(p.Data, &fields); err != nil {
			return fmt.Errorf("%w: bad payload: %v", ErrInvalid, err)
		}
	}

	switch p.Action {
	case types.ActionCreate:
		// Attributed to the proposer, not the reviewer.
		_, err := catalog.InsertApproved(tx, fields, p.ProposedBy, reviewerID)
		return err
	case types.ActionEdit:
		return catalog.ApplyEdit(tx, *p.PerfumeID, fields)
	case types.ActionDelete:
		return catalog.Remove(tx, *p.PerfumeID)
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalid, p.Action)
	}
}

// ListPending returns the review queue oldest-first so long-waiting proposals
// are not starved, plus the total pending count for pagination.
func ListPending(db *gorm.DB, limit, offset int) ([]types.Proposal, int64, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int64
	if err := db.Model(&types.Proposal{}).Where("status = ?", types.StatusPending).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	out := []types.Proposal{}
	err := db.Where("status = ?", types.StatusPending).
		Order("proposed_at ASC").Limit(limit).Offset(offset).Find(&out).Error
	return out, total, err
}

// ListMine returns a user's own proposals newest-first, any status.
func ListMine(db *gorm.DB, userID string, limit, offset int) ([]types.Proposal, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []types.Proposal{}
	err := db.Where("proposed_by = ?", userID).
		Order("proposed_at DESC").Limit(limit).Offset(offset).Find(&out).Error
	return out, err
}

// Get returns a proposal to its proposer or to a moderator; everyone else is
// refused so unreviewed submissions stay private.
func Get(db *gorm.DB, id, callerID string, callerIsModerator bool) (*types.Proposal, error) {
	var p types.Proposal
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.ProposedBy != callerID && !callerIsModerator {
		return nil, ErrForbidden
	}
	return &p, nil
}
