package history

import (
	"context"
	"fmt"
	"sort"

	"github.com/ren-app/ren-backend/internal/types"
)

// Store is the conversation persistence needed by the history service.
type Store interface {
	ConversationsByUser(ctx context.Context, userID string) ([]types.Conversation, error)
}

// Service assembles a user's message history as one globally time-ordered
// stream of fixed-size pages, independent of which conversation each message
// belongs to.
type Service struct {
	store    Store
	pageSize int
}

// NewService creates a new history Service.
func NewService(store Store, pageSize int) *Service {
	if pageSize < 1 {
		pageSize = 10
	}
	return &Service{
		store:    store,
		pageSize: pageSize,
	}
}

// ListMessages returns one page of the user's flattened message history, most
// recent message first. An out-of-range page is clamped rather than rejected,
// so page 1 for a user with no history is a valid empty page.
func (s *Service) ListMessages(ctx context.Context, userID string, page int) ([]types.HistoryMessage, types.Pagination, error) {
	convs, err := s.store.ConversationsByUser(ctx, userID)
	if err != nil {
		return nil, types.Pagination{}, fmt.Errorf("load conversations: %w", err)
	}

	all := flatten(convs)
	if len(all) == 0 {
		return []types.HistoryMessage{}, types.Pagination{
			CurrentPage:     1,
			TotalPages:      1,
			TotalMessages:   0,
			MessagesPerPage: s.pageSize,
		}, nil
	}

	total := len(all)
	totalPages := (total + s.pageSize - 1) / s.pageSize

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	from := (page - 1) * s.pageSize
	to := from + s.pageSize
	if to > total {
		to = total
	}
	pageMsgs := make([]types.HistoryMessage, 0, to-from)
	for _, rec := range all[from:to] {
		pageMsgs = append(pageMsgs, rec.HistoryMessage)
	}

	return pageMsgs, types.Pagination{
		CurrentPage:     page,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
		TotalMessages:   total,
		MessagesPerPage: s.pageSize,
		Showing: types.Showing{
			From:  from + 1,
			To:    to,
			Count: to - from,
		},
	}, nil
}

// record carries the flattened message plus its append position, used as the
// final sort tie-breaker.
type record struct {
	types.HistoryMessage
	appendIndex int
}

// flatten emits every message of every conversation with its conversation
// metadata attached, sorted by message creation time descending. Messages
// sharing a timestamp are ordered by conversation id ascending, then by
// append position descending, so the result is deterministic.
func flatten(convs []types.Conversation) []record {
	var all []record
	for _, conv := range convs {
		convID := conv.ID.String()
		for i, msg := range conv.Messages {
			all = append(all, record{
				HistoryMessage: types.HistoryMessage{
					ConversationID:        convID,
					ConversationActive:    conv.Active,
					ConversationCreatedAt: conv.CreatedAt,
					ConversationUpdatedAt: conv.UpdatedAt,
					Role:                  msg.Role,
					Content:               msg.Content,
					CreatedAt:             msg.CreatedAt,
					UpdatedAt:             msg.UpdatedAt,
				},
				appendIndex: i,
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.ConversationID != b.ConversationID {
			return a.ConversationID < b.ConversationID
		}
		return a.appendIndex > b.appendIndex
	})

	return all
}
