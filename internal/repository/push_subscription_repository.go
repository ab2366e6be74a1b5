package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chat-service/internal/domain"
)

// PushSubscriptionRepository maintains the identity → push endpoint mapping.
// The endpoint string is the natural key; concurrent writes on the same
// endpoint are last-writer-wins.
type PushSubscriptionRepository interface {
	// Upsert stores the subscription, overwriting an existing row for the
	// same endpoint. It reports whether a new row was created.
	Upsert(ctx context.Context, sub *domain.PushSubscription) (created bool, err error)
	GetByEndpoint(ctx context.Context, endpoint string) (*domain.PushSubscription, error)
	ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error)
	// DeleteByEndpoint removes exactly one endpoint record and reports
	// whether it existed.
	DeleteByEndpoint(ctx context.Context, endpoint string) (bool, error)
}

type pushSubscriptionRepository struct {
	pool *pgxpool.Pool
}

// NewPushSubscriptionRepository builds repository.
func NewPushSubscriptionRepository(pool *pgxpool.Pool) PushSubscriptionRepository {
	return &pushSubscriptionRepository{pool: pool}
}

func (r *pushSubscriptionRepository) Upsert(ctx context.Context, sub *domain.PushSubscription) (bool, error) {
	const query = `
        INSERT INTO push_subscriptions (endpoint, user_id, p256dh, auth, user_agent)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (endpoint) DO UPDATE
            SET user_id=EXCLUDED.user_id,
                p256dh=EXCLUDED.p256dh,
                auth=EXCLUDED.auth,
                user_agent=EXCLUDED.user_agent,
                updated_at=now()
        RETURNING created_at, updated_at, (xmax = 0)`
	var created bool
	err := r.pool.QueryRow(ctx, query,
		sub.Endpoint,
		sub.UserID,
		sub.P256dh,
		sub.Auth,
		sub.UserAgent,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt, &created)
	return created, err
}

func (r *pushSubscriptionRepository) GetByEndpoint(ctx context.Context, endpoint string) (*domain.PushSubscription, error) {
	const query = `
        SELECT endpoint, user_id, p256dh, auth, user_agent, created_at, updated_at
        FROM push_subscriptions WHERE endpoint=$1`
	var sub domain.PushSubscription
	err := r.pool.QueryRow(ctx, query, endpoint).Scan(
		&sub.Endpoint,
		&sub.UserID,
		&sub.P256dh,
		&sub.Auth,
		&sub.UserAgent,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *pushSubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]domain.PushSubscription, error) {
	const query = `
        SELECT endpoint, user_id, p256dh, auth, user_agent, created_at, updated_at
        FROM push_subscriptions WHERE user_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PushSubscription
	for rows.Next() {
		var sub domain.PushSubscription
		if err := rows.Scan(
			&sub.Endpoint,
			&sub.UserID,
			&sub.P256dh,
			&sub.Auth,
			&sub.UserAgent,
			&sub.CreatedAt,
			&sub.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, sub)
	}
	return result, rows.Err()
}

func (r *pushSubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) (bool, error) {
	const query = `DELETE FROM push_subscriptions WHERE endpoint=$1`
	tag, err := r.pool.Exec(ctx, query, endpoint)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
