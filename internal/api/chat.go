package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ren-app/ren-backend/internal/service/chat"
)

// GenerateTextRequest is the request body for POST /generateText.
type GenerateTextRequest struct {
	UserID  string `json:"user_id"`
	Message string `json:"message"`
}

// GenerateTextResponse is the response for POST /generateText.
type GenerateTextResponse struct {
	Reply string `json:"reply"`
}

// GenerateText handles POST /generateText.
func (s *Server) GenerateText(c echo.Context) error {
	var req GenerateTextRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	if req.UserID == "" || req.Message == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "user_id and message are required"})
	}

	reply, err := s.chat.HandleTurn(c.Request().Context(), req.UserID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrMissingInput):
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		case errors.Is(err, chat.ErrTurnInProgress):
			return c.JSON(http.StatusConflict, ErrorResponse{Error: "a turn is already in progress for this user"})
		}
		s.logger.WithError(err).WithField("user_id", req.UserID).Error("failed to generate reply")
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to generate reply"})
	}

	return c.JSON(http.StatusOK, GenerateTextResponse{Reply: reply})
}
