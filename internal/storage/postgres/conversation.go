package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ren-app/ren-backend/internal/types"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// Carry-order columns for picking the conversation whose context is carried
// forward into a new session.
const (
	CarryByCreatedAt = "created_at"
	CarryByUpdatedAt = "updated_at"
)

const conversationColumns = "id, user_id, active, messages, created_at, updated_at, closed_at"

// ConversationRepository handles database operations for conversations. A
// conversation row is treated as a document: the message sequence lives in a
// jsonb column and is written back whole on each turn.
type ConversationRepository struct {
	pool       *pgxpool.Pool
	carryOrder string
}

// NewConversationRepository creates a new ConversationRepository. carryOrder
// must be CarryByCreatedAt or CarryByUpdatedAt; anything else falls back to
// CarryByCreatedAt.
func NewConversationRepository(pool *pgxpool.Pool, carryOrder string) *ConversationRepository {
	if carryOrder != CarryByUpdatedAt {
		carryOrder = CarryByCreatedAt
	}
	return &ConversationRepository{
		pool:       pool,
		carryOrder: carryOrder,
	}
}

// ActiveConversation returns the user's active conversation, or ErrNotFound
// if none exists.
func (r *ConversationRepository) ActiveConversation(ctx context.Context, userID string) (*types.Conversation, error) {
	row := r.pool.QueryRow(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE user_id = $1 AND active",
		userID)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active conversation: %w", err)
	}
	return conv, nil
}

// LatestInactiveConversation returns the most recent closed conversation for
// the user, ordered by the configured carry-order column, or ErrNotFound if
// the user has no closed conversations.
func (r *ConversationRepository) LatestInactiveConversation(ctx context.Context, userID string) (*types.Conversation, error) {
	// carryOrder is constrained to known column names by the constructor.
	row := r.pool.QueryRow(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE user_id = $1 AND NOT active ORDER BY "+r.carryOrder+" DESC LIMIT 1",
		userID)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get latest inactive conversation: %w", err)
	}
	return conv, nil
}

// SaveActiveConversation upserts the user's active conversation document,
// keyed by the partial unique index on (user_id) WHERE active. On insert the
// generated id and created_at are written back into conv.
func (r *ConversationRepository) SaveActiveConversation(ctx context.Context, conv *types.Conversation) error {
	raw, err := json.Marshal(conv.Messages)
	if err != nil {
		return fmt.Errorf("marshal messages: %w", err)
	}

	err = r.pool.QueryRow(ctx, `
		INSERT INTO conversations (user_id, active, messages, created_at, updated_at)
		VALUES ($1, true, $2, $3, $4)
		ON CONFLICT (user_id) WHERE active
		DO UPDATE SET messages = EXCLUDED.messages, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`,
		conv.UserID, raw, conv.CreatedAt, conv.UpdatedAt).
		Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("save active conversation: %w", err)
	}
	return nil
}

// CloseActive closes the user's active conversation in a single conditional
// update. It returns false when the user had no active conversation, which is
// not an error.
func (r *ConversationRepository) CloseActive(ctx context.Context, userID string) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		"UPDATE conversations SET active = false, closed_at = now(), updated_at = now() WHERE user_id = $1 AND active",
		userID)
	if err != nil {
		return false, fmt.Errorf("close active conversation: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ConversationsByUser returns every conversation for the user, most recently
// updated first, regardless of active status.
func (r *ConversationRepository) ConversationsByUser(ctx context.Context, userID string) ([]types.Conversation, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT "+conversationColumns+" FROM conversations WHERE user_id = $1 ORDER BY updated_at DESC",
		userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	var convs []types.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, *conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return convs, nil
}

func scanConversation(row pgx.Row) (*types.Conversation, error) {
	var (
		conv types.Conversation
		raw  []byte
	)
	err := row.Scan(&conv.ID, &conv.UserID, &conv.Active, &raw, &conv.CreatedAt, &conv.UpdatedAt, &conv.ClosedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &conv.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	return &conv, nil
}
