package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"resumelens/internal/errors"
)

// GetSubscriptionPlan returns the stored plan for a user. Users without a
// subscription row are on the free plan.
func (db *DB) GetSubscriptionPlan(ctx context.Context, userID uuid.UUID) (string, error) {
	var plan string
	err := db.pool.QueryRow(ctx,
		`SELECT plan FROM subscriptions WHERE user_id = $1`,
		userID).Scan(&plan)
	if err != nil {
		if err == pgx.ErrNoRows {
			return "free", nil
		}
		return "", errors.NewPersistenceFailure("failed to get subscription plan", err)
	}
	return plan, nil
}

// SetSubscriptionPlan upserts a user's plan
func (db *DB) SetSubscriptionPlan(ctx context.Context, userID uuid.UUID, plan string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO subscriptions (user_id, plan, updated_at)
		 VALUES ($1, $2, NOW())
		 ON CONFLICT (user_id) DO UPDATE SET plan = $2, updated_at = NOW()`,
		userID, plan)
	if err != nil {
		return errors.NewPersistenceFailure("failed to set subscription plan", err)
	}
	return nil
}
