package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ren-app/ren-backend/internal/types"
)

type fakeStore struct {
	convs []types.Conversation
	err   error
}

func (f *fakeStore) ConversationsByUser(_ context.Context, _ string) ([]types.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.convs, nil
}

var baseTime = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// conversationWithMessages builds a conversation whose i-th message was
// created at start+i minutes, alternating user/assistant roles.
func conversationWithMessages(id uuid.UUID, active bool, start time.Time, count int) types.Conversation {
	msgs := make([]types.Message, 0, count)
	for i := 0; i < count; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		at := start.Add(time.Duration(i) * time.Minute)
		msgs = append(msgs, types.Message{Role: role, Content: "msg", CreatedAt: at, UpdatedAt: at})
	}
	return types.Conversation{
		ID:        id,
		UserID:    "u1",
		Active:    active,
		Messages:  msgs,
		CreatedAt: start,
		UpdatedAt: start.Add(time.Duration(count) * time.Minute),
	}
}

func TestListMessagesNoHistory(t *testing.T) {
	svc := NewService(&fakeStore{}, 10)

	msgs, pagination, err := svc.ListMessages(context.Background(), "u1", 1)
	require.NoError(t, err)

	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
	assert.Equal(t, types.Pagination{
		CurrentPage:     1,
		TotalPages:      1,
		HasNextPage:     false,
		HasPreviousPage: false,
		TotalMessages:   0,
		MessagesPerPage: 10,
	}, pagination)
}

func TestListMessagesLastPartialPage(t *testing.T) {
	// 23 messages split across three conversations.
	store := &fakeStore{convs: []types.Conversation{
		conversationWithMessages(uuid.New(), true, baseTime.Add(48*time.Hour), 3),
		conversationWithMessages(uuid.New(), false, baseTime.Add(24*time.Hour), 12),
		conversationWithMessages(uuid.New(), false, baseTime, 8),
	}}
	svc := NewService(store, 10)

	msgs, pagination, err := svc.ListMessages(context.Background(), "u1", 3)
	require.NoError(t, err)

	assert.Len(t, msgs, 3)
	assert.Equal(t, 3, pagination.CurrentPage)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.Equal(t, 23, pagination.TotalMessages)
	assert.False(t, pagination.HasNextPage)
	assert.True(t, pagination.HasPreviousPage)
	assert.Equal(t, types.Showing{From: 21, To: 23, Count: 3}, pagination.Showing)
}

func TestListMessagesOrderedMostRecentFirst(t *testing.T) {
	store := &fakeStore{convs: []types.Conversation{
		conversationWithMessages(uuid.New(), false, baseTime.Add(time.Hour), 5),
		conversationWithMessages(uuid.New(), true, baseTime, 5),
	}}
	svc := NewService(store, 4)

	var all []types.HistoryMessage
	for page := 1; ; page++ {
		msgs, pagination, err := svc.ListMessages(context.Background(), "u1", page)
		require.NoError(t, err)
		all = append(all, msgs...)
		if !pagination.HasNextPage {
			break
		}
		// Every page except the last is full.
		assert.Len(t, msgs, 4)
	}

	require.Len(t, all, 10)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i-1].CreatedAt.Before(all[i].CreatedAt),
			"message %d is newer than message %d", i, i-1)
	}
}

func TestListMessagesCompleteAndDistinctAcrossPages(t *testing.T) {
	store := &fakeStore{convs: []types.Conversation{
		conversationWithMessages(uuid.New(), false, baseTime, 7),
		conversationWithMessages(uuid.New(), false, baseTime.Add(7*time.Minute), 6),
		conversationWithMessages(uuid.New(), true, baseTime.Add(13*time.Minute), 4),
	}}
	svc := NewService(store, 5)

	seen := make(map[string]int)
	total := 0
	for page := 1; ; page++ {
		msgs, pagination, err := svc.ListMessages(context.Background(), "u1", page)
		require.NoError(t, err)
		total += len(msgs)
		for _, m := range msgs {
			seen[m.ConversationID+"/"+m.CreatedAt.String()]++
		}
		if !pagination.HasNextPage {
			break
		}
	}

	assert.Equal(t, 17, total)
	for key, count := range seen {
		assert.Equal(t, 1, count, "message %s appeared %d times", key, count)
	}
}

func TestListMessagesClampsPage(t *testing.T) {
	store := &fakeStore{convs: []types.Conversation{
		conversationWithMessages(uuid.New(), true, baseTime, 12),
	}}
	svc := NewService(store, 10)

	// Page below range clamps to the first page.
	msgs, pagination, err := svc.ListMessages(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.CurrentPage)
	assert.Len(t, msgs, 10)

	// Page beyond range clamps to the last page.
	msgs, pagination, err = svc.ListMessages(context.Background(), "u1", 99)
	require.NoError(t, err)
	assert.Equal(t, 2, pagination.CurrentPage)
	assert.Len(t, msgs, 2)
	assert.False(t, pagination.HasNextPage)
	assert.True(t, pagination.HasPreviousPage)
}

func TestListMessagesCarriesConversationMetadata(t *testing.T) {
	id := uuid.New()
	conv := conversationWithMessages(id, true, baseTime, 2)
	svc := NewService(&fakeStore{convs: []types.Conversation{conv}}, 10)

	msgs, _, err := svc.ListMessages(context.Background(), "u1", 1)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Equal(t, id.String(), m.ConversationID)
		assert.True(t, m.ConversationActive)
		assert.Equal(t, conv.CreatedAt, m.ConversationCreatedAt)
		assert.Equal(t, conv.UpdatedAt, m.ConversationUpdatedAt)
	}
}

func TestListMessagesEqualTimestampsDeterministic(t *testing.T) {
	idA := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	idB := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	// Two conversations whose messages all share one timestamp.
	convA := types.Conversation{ID: idA, UserID: "u1", Messages: []types.Message{
		{Role: types.RoleUser, Content: "a0", CreatedAt: baseTime, UpdatedAt: baseTime},
		{Role: types.RoleAssistant, Content: "a1", CreatedAt: baseTime, UpdatedAt: baseTime},
	}}
	convB := types.Conversation{ID: idB, UserID: "u1", Messages: []types.Message{
		{Role: types.RoleUser, Content: "b0", CreatedAt: baseTime, UpdatedAt: baseTime},
	}}

	svc := NewService(&fakeStore{convs: []types.Conversation{convB, convA}}, 10)
	msgs, _, err := svc.ListMessages(context.Background(), "u1", 1)
	require.NoError(t, err)

	// Ties order by conversation id ascending, then append position
	// descending, regardless of the order conversations were loaded in.
	contents := make([]string, 0, len(msgs))
	for _, m := range msgs {
		contents = append(contents, m.Content)
	}
	assert.Equal(t, []string{"a1", "a0", "b0"}, contents)
}

func TestListMessagesStoreError(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("connection refused")}, 10)

	_, _, err := svc.ListMessages(context.Background(), "u1", 1)
	assert.ErrorContains(t, err, "load conversations")
}
