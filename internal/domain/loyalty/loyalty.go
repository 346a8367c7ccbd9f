// Package loyalty implements stamp-card accrual for completed orders.
package loyalty

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/menuflow/menuflow/internal/domain/order"
)

// Program is a per-menu loyalty scheme. Only active programs accrue stamps.
type Program struct {
	ID             uuid.UUID
	MenuID         uuid.UUID
	Name           string
	StampsRequired int32
	Active         bool
}

// Card accumulates stamps for one customer in one program. Customers are
// keyed by normalized phone number.
type Card struct {
	ID            uuid.UUID
	ProgramID     uuid.UUID
	CustomerPhone string
	Stamps        int32
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Stamp is the immutable audit record behind a card increment.
type Stamp struct {
	ID        uuid.UUID
	CardID    uuid.UUID
	OrderID   uuid.UUID
	CreatedAt time.Time
}

// Repository defines persistence operations for loyalty accrual.
type Repository interface {
	// ActivePrograms lists the active programs on a menu.
	ActivePrograms(ctx context.Context, menuID uuid.UUID) ([]Program, error)
	// IncrementCard adds one stamp to the (program, phone) card, creating
	// it at one stamp when absent, and returns the resulting card.
	IncrementCard(ctx context.Context, programID uuid.UUID, phone string) (*Card, error)
	// AppendStamp records the audit row for an increment.
	AppendStamp(ctx context.Context, s *Stamp) error
}

// Service accrues loyalty stamps when orders complete.
type Service struct {
	repo Repository
}

// NewService creates a loyalty Service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

var _ order.LoyaltyAccruer = (*Service)(nil)

// AccrueCompleted increments one card per active program on the order's
// menu, keyed by the customer's normalized phone. Programs are independent:
// a failure on one is logged and the rest still accrue. The last failure is
// returned so the submitting runner records it.
func (s *Service) AccrueCompleted(ctx context.Context, o *order.Order) error {
	phone := NormalizePhone(o.CustomerPhone)
	if phone == "" {
		return nil
	}

	programs, err := s.repo.ActivePrograms(ctx, o.MenuID)
	if err != nil {
		return fmt.Errorf("listing active programs for menu %q: %w", o.MenuID, err)
	}

	var lastErr error
	for _, p := range programs {
		if err := s.accrue(ctx, p, phone, o.ID); err != nil {
			zctx.From(ctx).Warn("loyalty accrual failed",
				zap.String("program_id", p.ID.String()),
				zap.String("order_id", o.ID.String()),
				zap.Error(err),
			)
			lastErr = err
		}
	}
	return lastErr
}

func (s *Service) accrue(ctx context.Context, p Program, phone string, orderID uuid.UUID) error {
	card, err := s.repo.IncrementCard(ctx, p.ID, phone)
	if err != nil {
		return fmt.Errorf("incrementing card: %w", err)
	}
	stamp := &Stamp{
		ID:        uuid.New(),
		CardID:    card.ID,
		OrderID:   orderID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.AppendStamp(ctx, stamp); err != nil {
		return fmt.Errorf("appending stamp: %w", err)
	}
	return nil
}

// NormalizePhone canonicalizes a customer phone number for card keying:
// digits only, with a single leading plus preserved when present.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	var b strings.Builder
	for i, r := range phone {
		if r == '+' && i == 0 {
			b.WriteRune(r)
			continue
		}
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "+" {
		return ""
	}
	return out
}
