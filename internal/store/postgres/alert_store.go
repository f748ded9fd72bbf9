package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quantfold/arbscope/internal/domain"
)

// AlertStore implements domain.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *pgxpool.Pool
}

// NewAlertStore creates an AlertStore.
func NewAlertStore(pool *pgxpool.Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Enqueue adds a pending alert for one user and opportunity.
func (s *AlertStore) Enqueue(ctx context.Context, userID, opportunityID string) error {
	const query = `
		INSERT INTO alerts_queue (user_id, arb_id, status)
		VALUES ($1, $2, 'pending')`
	_, err := s.pool.Exec(ctx, query, userID, opportunityID)
	if err != nil {
		return fmt.Errorf("postgres: enqueue alert %s/%s: %w", userID, opportunityID, err)
	}
	return nil
}

// ListPending returns up to limit undelivered alerts, oldest first.
func (s *AlertStore) ListPending(ctx context.Context, limit int) ([]domain.Alert, error) {
	const query = `
		SELECT id, user_id, arb_id, status, sent_at, last_value, created_at
		FROM alerts_queue
		WHERE status = 'pending'
		ORDER BY created_at ASC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list pending alerts: %w", err)
	}
	defer rows.Close()

	var out []domain.Alert
	for rows.Next() {
		var a domain.Alert
		var status string
		if err := rows.Scan(&a.ID, &a.UserID, &a.OpportunityID, &status, &a.SentAt, &a.LastValue, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan alert: %w", err)
		}
		a.Status = domain.AlertStatus(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: alert rows: %w", err)
	}
	return out, nil
}

// MarkSent records a successful delivery and the EV value it carried.
func (s *AlertStore) MarkSent(ctx context.Context, id int64, at time.Time, value float64) error {
	const query = `
		UPDATE alerts_queue
		SET status = 'sent', sent_at = $2, last_value = $3
		WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id, at, value)
	if err != nil {
		return fmt.Errorf("postgres: mark alert %d sent: %w", id, err)
	}
	return nil
}

var _ domain.AlertStore = (*AlertStore)(nil)

// UserStore implements domain.UserStore using PostgreSQL.
type UserStore struct {
	pool *pgxpool.Pool
}

// NewUserStore creates a UserStore.
func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// ListSubscribed returns up to limit users eligible for alerts.
func (s *UserStore) ListSubscribed(ctx context.Context, limit int) ([]domain.User, error) {
	const query = `
		SELECT telegram_id, subscribed, created_at
		FROM users
		WHERE subscribed
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list subscribed users: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.TelegramID, &u.Subscribed, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan user: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: user rows: %w", err)
	}
	return out, nil
}

var _ domain.UserStore = (*UserStore)(nil)
