package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ArowuTest/loyaltybot-backend/internal/models"
	"github.com/ArowuTest/loyaltybot-backend/internal/repositories"
)

// AttachStatus describes what AttachPhone did.
type AttachStatus string

const (
	AttachStatusAttached        AttachStatus = "attached"
	AttachStatusAlreadyAttached AttachStatus = "already_attached"
	AttachStatusMerged          AttachStatus = "merged"
	AttachStatusChanged         AttachStatus = "changed"
)

// AttachResult is returned by AttachPhone.
type AttachResult struct {
	Status      AttachStatus `json:"status"`
	Message     string       `json:"message"`
	PointsMoved int64        `json:"pointsMoved"`
	AccountID   int64        `json:"accountId"`
	Phone       string       `json:"phone"`
	MergedFrom  int64        `json:"mergedFrom,omitempty"`
}

// MergeService attaches phones to accounts and merges colliding accounts
type MergeService struct {
	core
}

// NewMergeService creates a new MergeService
func NewMergeService(opts Options) *MergeService {
	return &MergeService{core: newCore(opts)}
}

// AttachPhone links rawPhone to the account. If another account already holds
// the phone, its balances are moved onto this account through the ledger, its
// unset profile fields are copied over and it is deleted before the phone is
// attached. A first phone earns the welcome bonus.
func (s *MergeService) AttachPhone(ctx context.Context, accountID int64, rawPhone string) (*AttachResult, error) {
	phone, err := NormalizePhone(rawPhone)
	if err != nil {
		return nil, err
	}

	var (
		result  *AttachResult
		records []*models.LedgerRecord
	)
	err = s.runTx(ctx, "attach_phone", func(ctx context.Context, repos repositories.Repositories) error {
		// A retried transaction starts over.
		result, records = nil, nil

		acting, err := repos.Accounts.FindByID(ctx, accountID)
		if err != nil {
			return notFound(err, "account %d", accountID)
		}
		if acting.PhoneValue() == phone {
			result = &AttachResult{
				Status:    AttachStatusAlreadyAttached,
				Message:   "This phone number is already linked to your account.",
				AccountID: acting.ID,
				Phone:     phone,
			}
			return nil
		}

		existing, err := repos.Accounts.FindByPhone(ctx, phone)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("look up phone holder: %w", err)
		}

		switch {
		case existing != nil && existing.ID != acting.ID:
			moved, recs, err := s.mergeTx(ctx, repos, acting, existing)
			if err != nil {
				return err
			}
			records = recs
			result = &AttachResult{
				Status:      AttachStatusMerged,
				Message:     fmt.Sprintf("Phone number linked. %d points were transferred to your account.", moved),
				PointsMoved: moved,
				AccountID:   acting.ID,
				Phone:       phone,
				MergedFrom:  existing.ID,
			}

		case !acting.HasPhone():
			var bonus int64
			if s.points.WelcomeBonus > 0 {
				rec, err := s.applyPointsTx(ctx, repos, acting.ID, models.CategoryWelcome, s.points.WelcomeBonus,
					"Welcome bonus for linking a phone number")
				if err != nil {
					return err
				}
				records = append(records, rec)
				bonus = rec.Amount
			}
			result = &AttachResult{
				Status:      AttachStatusAttached,
				Message:     fmt.Sprintf("Phone number linked. +%d welcome points!", bonus),
				PointsMoved: bonus,
				AccountID:   acting.ID,
				Phone:       phone,
			}

		default:
			result = &AttachResult{
				Status:    AttachStatusChanged,
				Message:   "Phone number changed.",
				AccountID: acting.ID,
				Phone:     phone,
			}
		}

		// The phone is written last, after the superseded holder is gone.
		acting.Phone = &phone
		if err := repos.Accounts.UpdateProfile(ctx, acting); err != nil {
			return fmt.Errorf("attach phone: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Warn("Phone attach failed",
			zap.Int64("account_id", accountID),
			zap.Error(err))
		return nil, err
	}

	s.observe(records...)
	s.metrics.ObserveAttach(string(result.Status), mergedPoints(result))
	s.logger.Info("Phone attached",
		zap.Int64("account_id", result.AccountID),
		zap.String("status", string(result.Status)),
		zap.Int64("points_moved", result.PointsMoved),
		zap.Int64("merged_from", result.MergedFrom))
	return result, nil
}

// mergeTx moves every positive balance of existing onto acting, copies the
// profile fields acting lacks and deletes existing. acting is updated in
// memory only; the caller persists it together with the phone.
//
// The referral code of existing dies with it. acting drops an inviter link to
// that code; other accounts invited through it keep a dangling invited_by.
func (s *MergeService) mergeTx(ctx context.Context, repos repositories.Repositories, acting, existing *models.Account) (int64, []*models.LedgerRecord, error) {
	var (
		moved   int64
		records []*models.LedgerRecord
	)
	transfers := []struct {
		category models.LedgerCategory
		amount   int64
	}{
		{models.CategoryManual, existing.PointsManual},
		{models.CategoryReferral, existing.PointsReferral},
	}
	for _, t := range transfers {
		if t.amount <= 0 {
			continue
		}
		rec, err := s.applyPointsTx(ctx, repos, acting.ID, t.category, t.amount,
			fmt.Sprintf("Transferred from superseded account #%d", existing.ID))
		if err != nil {
			return 0, nil, err
		}
		records = append(records, rec)
		moved += t.amount
	}

	backfillProfile(acting, existing)
	if acting.InvitedBy == existing.ReferralCode {
		acting.InvitedBy = ""
	}

	if err := repos.Accounts.Delete(ctx, existing.ID); err != nil {
		return 0, nil, fmt.Errorf("delete superseded account %d: %w", existing.ID, err)
	}
	return moved, records, nil
}

// backfillProfile copies fields that dst has not set from src.
func backfillProfile(dst, src *models.Account) {
	if dst.DisplayName == "" {
		dst.DisplayName = src.DisplayName
	}
	if dst.Surname == "" {
		dst.Surname = src.Surname
	}
	if dst.Handle == "" {
		dst.Handle = src.Handle
	}
	if dst.ReferralCode == "" {
		dst.ReferralCode = src.ReferralCode
	}
	if dst.InvitedBy == "" && src.InvitedBy != dst.ReferralCode {
		dst.InvitedBy = src.InvitedBy
	}
	if dst.ExternalID == nil && src.ExternalID != nil {
		id := *src.ExternalID
		dst.ExternalID = &id
	}
}

func mergedPoints(r *AttachResult) int64 {
	if r.Status != AttachStatusMerged {
		return 0
	}
	return r.PointsMoved
}
