package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ren-app/ren-backend/internal/ai/gemini"
	"github.com/ren-app/ren-backend/internal/storage/postgres"
	"github.com/ren-app/ren-backend/internal/types"
)

// ErrMissingInput is returned when user_id or the message is empty.
var ErrMissingInput = errors.New("user_id and message are required")

// ErrTurnInProgress is returned when another turn for the same user is
// already being processed.
var ErrTurnInProgress = errors.New("a turn for this user is already in progress")

// Store is the conversation persistence needed by the chat service.
type Store interface {
	ActiveConversation(ctx context.Context, userID string) (*types.Conversation, error)
	LatestInactiveConversation(ctx context.Context, userID string) (*types.Conversation, error)
	SaveActiveConversation(ctx context.Context, conv *types.Conversation) error
}

// Generator is the text-generation provider.
type Generator interface {
	GenerateContent(ctx context.Context, req *gemini.Request) (*gemini.Response, error)
}

// Locker provides the per-user turn lease that serializes concurrent turns
// for the same user.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Service resolves the user's session state, assembles the provider context
// for a turn and persists the exchanged messages.
type Service struct {
	store     Store
	generator Generator
	locker    Locker
	logger    *logrus.Logger
	turnTTL   time.Duration
}

// NewService creates a new chat Service.
func NewService(store Store, generator Generator, locker Locker, logger *logrus.Logger, turnTTL time.Duration) *Service {
	return &Service{
		store:     store,
		generator: generator,
		locker:    locker,
		logger:    logger,
		turnTTL:   turnTTL,
	}
}

// HandleTurn appends userMessage to the user's active conversation, sends the
// full conversation context to the provider and persists the reply. Session
// state is recomputed from the store on every call:
//
//   - an active conversation exists: its messages are the context;
//   - only closed conversations exist: the most recent one's messages are
//     carried forward and a new conversation is opened with a greeting;
//   - brand-new user: the persona preamble fronts the context and a new
//     conversation is opened with the same greeting.
//
// Nothing is written unless the provider call succeeds.
func (s *Service) HandleTurn(ctx context.Context, userID, userMessage string) (string, error) {
	if userID == "" || userMessage == "" {
		return "", ErrMissingInput
	}

	lockKey := "turn:" + userID
	acquired, err := s.locker.TryLock(ctx, lockKey, s.turnTTL)
	if err != nil {
		return "", fmt.Errorf("acquire turn lock: %w", err)
	}
	if !acquired {
		return "", ErrTurnInProgress
	}
	defer func() {
		if err := s.locker.Unlock(context.WithoutCancel(ctx), lockKey); err != nil {
			s.logger.WithError(err).WithField("user_id", userID).Warn("failed to release turn lock")
		}
	}()

	now := time.Now().UTC()

	conv, contents, err := s.resolveSession(ctx, userID, now)
	if err != nil {
		return "", err
	}

	userMsg := types.Message{
		Role:      types.RoleUser,
		Content:   userMessage,
		CreatedAt: now,
		UpdatedAt: now,
	}
	conv.Messages = append(conv.Messages, userMsg)
	contents = append(contents, geminiContent(userMsg))

	resp, err := s.generator.GenerateContent(ctx, &gemini.Request{Contents: contents})
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	reply := resp.Text()
	if reply == "" {
		return "", fmt.Errorf("empty response from gemini")
	}

	replyAt := time.Now().UTC()
	conv.Messages = append(conv.Messages, types.Message{
		Role:      types.RoleAssistant,
		Content:   reply,
		CreatedAt: replyAt,
		UpdatedAt: replyAt,
	})
	conv.UpdatedAt = replyAt

	if err := s.store.SaveActiveConversation(ctx, conv); err != nil {
		return "", fmt.Errorf("save conversation: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":         userID,
		"conversation_id": conv.ID,
		"messages":        len(conv.Messages),
	}).Info("turn completed")

	return reply, nil
}

// resolveSession locates or creates the active conversation for the user and
// returns it together with the provider context assembled so far.
func (s *Service) resolveSession(ctx context.Context, userID string, now time.Time) (*types.Conversation, []gemini.Content, error) {
	conv, err := s.store.ActiveConversation(ctx, userID)
	if err == nil {
		return conv, geminiContents(conv.Messages), nil
	}
	if !errors.Is(err, postgres.ErrNotFound) {
		return nil, nil, fmt.Errorf("resolve session: %w", err)
	}

	greeting := types.Message{
		Role:      types.RoleAssistant,
		Content:   Greeting,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var contents []gemini.Content
	prev, err := s.store.LatestInactiveConversation(ctx, userID)
	switch {
	case err == nil:
		// The assistant remembers the closed session: its full message
		// sequence is carried forward as context.
		contents = geminiContents(prev.Messages)
	case errors.Is(err, postgres.ErrNotFound):
		contents = geminiContents(personaPreamble(now))
	default:
		return nil, nil, fmt.Errorf("resolve session: %w", err)
	}
	contents = append(contents, geminiContent(greeting))

	conv = &types.Conversation{
		UserID:    userID,
		Active:    true,
		Messages:  []types.Message{greeting},
		CreatedAt: now,
		UpdatedAt: now,
	}
	return conv, contents, nil
}

// geminiContent converts a stored message to the Gemini wire format. The
// stored "assistant" role maps to "model" on the wire.
func geminiContent(msg types.Message) gemini.Content {
	role := gemini.RoleUser
	if msg.Role == types.RoleAssistant {
		role = gemini.RoleModel
	}
	return gemini.Content{
		Role:  role,
		Parts: []gemini.Part{{Text: msg.Content}},
	}
}

func geminiContents(msgs []types.Message) []gemini.Content {
	contents := make([]gemini.Content, 0, len(msgs))
	for _, msg := range msgs {
		contents = append(contents, geminiContent(msg))
	}
	return contents
}
