package api

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ren-app/ren-backend/internal/types"
)

// ChatService handles one conversational turn.
type ChatService interface {
	HandleTurn(ctx context.Context, userID, userMessage string) (string, error)
}

// HistoryService pages through a user's flattened message history.
type HistoryService interface {
	ListMessages(ctx context.Context, userID string, page int) ([]types.HistoryMessage, types.Pagination, error)
}

// ConversationCloser closes a user's active conversation.
type ConversationCloser interface {
	CloseActive(ctx context.Context, userID string) (bool, error)
}

// Server holds API dependencies.
type Server struct {
	chat    ChatService
	history HistoryService
	closer  ConversationCloser
	logger  *logrus.Logger
}

// NewServer creates a new API server.
func NewServer(chat ChatService, history HistoryService, closer ConversationCloser, logger *logrus.Logger) *Server {
	return &Server{
		chat:    chat,
		history: history,
		closer:  closer,
		logger:  logger,
	}
}
