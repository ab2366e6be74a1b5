package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/chat-service/internal/domain"
)

// MembershipRepository answers who belongs to a chat. It is the resolution
// set consumed by the visibility and notification paths; neither owns it.
type MembershipRepository interface {
	IsMember(ctx context.Context, chatID, userID string) (bool, error)
	ListMembers(ctx context.Context, chatID string) ([]domain.ChatMembership, error)
	// ResolveRecipients expands chat membership minus the sender into
	// recipients with their registered push endpoints, in a single query.
	ResolveRecipients(ctx context.Context, chatID, excludeUserID string) ([]domain.Recipient, error)
}

type membershipRepository struct {
	pool *pgxpool.Pool
}

// NewMembershipRepository builds repository.
func NewMembershipRepository(pool *pgxpool.Pool) MembershipRepository {
	return &membershipRepository{pool: pool}
}

func (r *membershipRepository) IsMember(ctx context.Context, chatID, userID string) (bool, error) {
	const query = `
        SELECT EXISTS (SELECT 1 FROM chat_members WHERE chat_id=$1 AND user_id=$2)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, chatID, userID).Scan(&exists)
	return exists, err
}

func (r *membershipRepository) ListMembers(ctx context.Context, chatID string) ([]domain.ChatMembership, error) {
	const query = `
        SELECT chat_id, user_id, joined_at
        FROM chat_members WHERE chat_id=$1`
	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ChatMembership
	for rows.Next() {
		var m domain.ChatMembership
		if err := rows.Scan(&m.ChatID, &m.UserID, &m.JoinedAt); err != nil {
			return nil, err
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

func (r *membershipRepository) ResolveRecipients(ctx context.Context, chatID, excludeUserID string) ([]domain.Recipient, error) {
	const query = `
        SELECT u.id, u.name, u.is_staff,
               s.endpoint, s.user_id, s.p256dh, s.auth, s.user_agent
        FROM chat_members cm
        JOIN users u ON u.id = cm.user_id
        LEFT JOIN push_subscriptions s ON s.user_id = u.id
        WHERE cm.chat_id=$1 AND cm.user_id<>$2
        ORDER BY u.id`
	rows, err := r.pool.Query(ctx, query, chatID, excludeUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Recipient
	for rows.Next() {
		var (
			userID   string
			name     string
			isStaff  bool
			endpoint *string
			subUser  *string
			p256dh   *string
			auth     *string
			agent    *string
		)
		if err := rows.Scan(&userID, &name, &isStaff, &endpoint, &subUser, &p256dh, &auth, &agent); err != nil {
			return nil, err
		}

		if len(result) == 0 || result[len(result)-1].UserID != userID {
			result = append(result, domain.Recipient{UserID: userID, Name: name, IsStaff: isStaff})
		}
		if endpoint != nil {
			last := &result[len(result)-1]
			last.Subscriptions = append(last.Subscriptions, domain.PushSubscription{
				Endpoint:  *endpoint,
				UserID:    *subUser,
				P256dh:    *p256dh,
				Auth:      *auth,
				UserAgent: *agent,
			})
		}
	}
	return result, rows.Err()
}
