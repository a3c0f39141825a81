package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ren-app/ren-backend/internal/types"
)

// ListMessagesResponse is the response for GET /conversations.
type ListMessagesResponse struct {
	Success    bool                   `json:"success"`
	Messages   []types.HistoryMessage `json:"messages"`
	Pagination types.Pagination       `json:"pagination"`
}

// CloseConversationRequest is the request body for POST /close-conversation.
type CloseConversationRequest struct {
	UserID string `json:"user_id"`
}

// CloseConversationResponse is the response for POST /close-conversation.
type CloseConversationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListMessages handles GET /conversations. It returns one page of the user's
// message history flattened across all of their conversations.
func (s *Server) ListMessages(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
	}

	page := 1
	if raw := c.QueryParam("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "page must be >= 1"})
		}
		page = parsed
	}

	messages, pagination, err := s.history.ListMessages(c.Request().Context(), userID, page)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to list messages")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to fetch conversations"})
	}

	if messages == nil {
		messages = []types.HistoryMessage{}
	}

	return c.JSON(http.StatusOK, ListMessagesResponse{
		Success:    true,
		Messages:   messages,
		Pagination: pagination,
	})
}

// CloseConversation handles POST /close-conversation. Closing when no
// conversation is active is a benign no-op.
func (s *Server) CloseConversation(c echo.Context) error {
	var req CloseConversationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.UserID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id is required"})
	}

	closed, err := s.closer.CloseActive(c.Request().Context(), req.UserID)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", req.UserID).Error("failed to close conversation")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to close conversation"})
	}

	message := "Active conversation closed successfully"
	if !closed {
		message = "No active conversation found"
	}

	return c.JSON(http.StatusOK, CloseConversationResponse{
		Success: true,
		Message: message,
	})
}
