package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/menuflow/menuflow/internal/domain/loyalty"
)

const (
	activeProgramsSQL = `SELECT id, menu_id, name, stamps_required, active
		FROM loyalty_programs WHERE menu_id = $1 AND active = TRUE ORDER BY name`

	// The upsert creates the card at one stamp or increments an existing
	// one in a single atomic statement.
	incrementCardSQL = `INSERT INTO loyalty_cards (id, program_id, customer_phone, stamps)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (program_id, customer_phone)
		DO UPDATE SET stamps = loyalty_cards.stamps + 1, updated_at = now()
		RETURNING id, program_id, customer_phone, stamps, created_at, updated_at`

	appendStampSQL = `INSERT INTO loyalty_stamps (id, card_id, order_id, created_at)
		VALUES ($1, $2, $3, $4)`
)

var _ loyalty.Repository = (*LoyaltyRepository)(nil)

// LoyaltyRepository implements loyalty.Repository backed by PostgreSQL.
type LoyaltyRepository struct {
	pool *pgxpool.Pool
}

// NewLoyaltyRepository returns a LoyaltyRepository that uses the given pool.
func NewLoyaltyRepository(pool *pgxpool.Pool) *LoyaltyRepository {
	return &LoyaltyRepository{pool: pool}
}

// ActivePrograms lists the active loyalty programs on a menu.
func (r *LoyaltyRepository) ActivePrograms(ctx context.Context, menuID uuid.UUID) ([]loyalty.Program, error) {
	rows, err := r.pool.Query(ctx, activeProgramsSQL, menuID)
	if err != nil {
		return nil, fmt.Errorf("listing programs for menu %q: %w", menuID, err)
	}
	return pgx.CollectRows(rows, scanProgram)
}

// IncrementCard upserts the (program, phone) card and returns it with the
// new stamp count.
func (r *LoyaltyRepository) IncrementCard(ctx context.Context, programID uuid.UUID, phone string) (*loyalty.Card, error) {
	rows, err := r.pool.Query(ctx, incrementCardSQL, uuid.New(), programID, phone)
	if err != nil {
		return nil, fmt.Errorf("incrementing card for program %q: %w", programID, err)
	}

	card, err := pgx.CollectExactlyOneRow(rows, scanCard)
	if err != nil {
		return nil, fmt.Errorf("incrementing card for program %q: %w", programID, err)
	}
	return &card, nil
}

// AppendStamp records the immutable audit row for a card increment.
func (r *LoyaltyRepository) AppendStamp(ctx context.Context, s *loyalty.Stamp) error {
	_, err := r.pool.Exec(ctx, appendStampSQL, s.ID, s.CardID, s.OrderID, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending stamp for card %q: %w", s.CardID, err)
	}
	return nil
}

func scanProgram(row pgx.CollectableRow) (loyalty.Program, error) {
	var p loyalty.Program
	err := row.Scan(&p.ID, &p.MenuID, &p.Name, &p.StampsRequired, &p.Active)
	return p, err
}

func scanCard(row pgx.CollectableRow) (loyalty.Card, error) {
	var c loyalty.Card
	err := row.Scan(&c.ID, &c.ProgramID, &c.CustomerPhone, &c.Stamps, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
