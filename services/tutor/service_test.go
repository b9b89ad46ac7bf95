package tutor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"studybuddy/db"
	"studybuddy/llm"
	"studybuddy/models"
	"studybuddy/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChatRepository struct {
	mu       sync.Mutex
	chats    map[string]*models.Chat
	messages map[string][]*models.Message
	nextID   int
}

func newFakeChatRepository() *fakeChatRepository {
	return &fakeChatRepository{
		chats:    make(map[string]*models.Chat),
		messages: make(map[string][]*models.Message),
	}
}

func (r *fakeChatRepository) CreateChat(chat *models.Chat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	chat.ID = fmt.Sprintf("chat-%d", r.nextID)
	r.chats[chat.ID] = chat
	return nil
}

func (r *fakeChatRepository) GetChatByID(id, userID string) (*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[id]
	if !ok || chat.UserID != userID {
		return nil, db.ErrNotFound
	}
	copied := *chat
	return &copied, nil
}

func (r *fakeChatRepository) GetChatsByUser(userID string) ([]*models.Chat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []*models.Chat
	for _, chat := range r.chats {
		if chat.UserID == userID {
			result = append(result, chat)
		}
	}
	return result, nil
}

func (r *fakeChatRepository) CreateMessage(message *models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.chats[message.ChatID]; !ok {
		return db.ErrNotFound
	}
	r.nextID++
	message.ID = fmt.Sprintf("message-%d", r.nextID)
	r.messages[message.ChatID] = append(r.messages[message.ChatID], message)
	return nil
}

func (r *fakeChatRepository) GetMessagesByChat(chatID string) ([]*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*models.Message(nil), r.messages[chatID]...), nil
}

func (r *fakeChatRepository) RenameChatIfPlaceholder(chatID, title string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	chat, ok := r.chats[chatID]
	if !ok {
		return false, db.ErrNotFound
	}
	if chat.Title != models.PlaceholderChatTitle {
		return false, nil
	}
	chat.Title = title
	return true, nil
}

type stubGateway struct {
	mu          sync.Mutex
	reply       string
	err         error
	lastRequest llm.Request
}

func (g *stubGateway) Complete(ctx context.Context, req llm.Request) (string, error) {
	g.mu.Lock()
	g.lastRequest = req
	g.mu.Unlock()

	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newTutorService(t *testing.T, gateway llm.Gateway) (*Service, *services.ChatService, *fakeChatRepository) {
	t.Helper()

	repo := newFakeChatRepository()
	chats := services.NewChatService(repo)
	return NewService(chats, gateway), chats, repo
}

func TestSendTurnFirstTurn(t *testing.T) {
	service, chats, _ := newTutorService(t, &stubGateway{reply: "Great question! F = ma."})

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)
	require.Equal(t, models.PlaceholderChatTitle, chat.Title)

	result, err := service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{
		Message: "What is Newton's second law?",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleUser, result.UserMessage.Role)
	assert.Equal(t, "What is Newton's second law?", result.UserMessage.Content)
	assert.Equal(t, models.RoleAssistant, result.AssistantMessage.Role)
	assert.Equal(t, "Great question! F = ma.", result.AssistantMessage.Content)

	// First user message is under the title limit, so it becomes the title
	// verbatim.
	assert.Equal(t, "What is Newton's second law?", result.ChatTitle)

	messages, err := chats.ListMessages("user-1", chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, models.RoleAssistant, messages[1].Role)
}

func TestSendTurnTitleTruncation(t *testing.T) {
	service, chats, _ := newTutorService(t, &stubGateway{reply: "Let me explain."})

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)

	long := strings.Repeat("a", 45)
	result, err := service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{Message: long})
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("a", 30)+"...", result.ChatTitle)
}

func TestSendTurnContextWindow(t *testing.T) {
	gateway := &stubGateway{reply: "noted"}
	service, chats, _ := newTutorService(t, gateway)

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)

	// Six prior messages in the chat, alternating roles.
	for i := 0; i < 6; i++ {
		role := models.RoleUser
		if i%2 == 1 {
			role = models.RoleAssistant
		}
		_, err := chats.AppendMessage("user-1", chat.ID, role, fmt.Sprintf("prior %d", i+1), models.LanguageEnglish, false)
		require.NoError(t, err)
	}

	_, err = service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{Message: "new question"})
	require.NoError(t, err)

	// The model sees the five most recent prior messages plus the new one.
	turns := gateway.lastRequest.Turns
	require.Len(t, turns, 6)
	assert.Equal(t, "prior 2", turns[0].Content)
	assert.Equal(t, "prior 6", turns[4].Content)
	assert.Equal(t, "new question", turns[5].Content)
	assert.Equal(t, models.RoleUser, turns[5].Role)
}

func TestSendTurnTitleLostRace(t *testing.T) {
	service, chats, repo := newTutorService(t, &stubGateway{reply: "hello"})

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)

	// Another turn already rewrote the title before this one finished.
	renamed, err := chats.RenameChatOnce(chat.ID, "Someone else's question")
	require.NoError(t, err)
	require.True(t, renamed)

	result, err := service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{Message: "My question"})
	require.NoError(t, err)

	// The losing turn must not present a title that never persisted.
	assert.Equal(t, "Someone else's question", result.ChatTitle)
	assert.Equal(t, "Someone else's question", repo.chats[chat.ID].Title)
}

func TestSendTurnSecondTurnKeepsTitle(t *testing.T) {
	service, chats, _ := newTutorService(t, &stubGateway{reply: "Sure."})

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)

	first, err := service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{Message: "First question"})
	require.NoError(t, err)
	require.Equal(t, "First question", first.ChatTitle)

	second, err := service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{Message: "A different followup"})
	require.NoError(t, err)

	assert.Equal(t, "First question", second.ChatTitle)
}

func TestSendTurnGatewayFailure(t *testing.T) {
	gatewayErr := fmt.Errorf("%w: upstream said no", llm.ErrGenerationFailed)
	service, chats, _ := newTutorService(t, &stubGateway{err: gatewayErr})

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)

	_, err = service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{Message: "Hello"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrGenerationFailed))

	// The user message survives the failed turn; only the assistant reply is
	// missing.
	messages, err := chats.ListMessages("user-1", chat.ID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, models.RoleUser, messages[0].Role)
}

func TestSendTurnValidation(t *testing.T) {
	service, chats, _ := newTutorService(t, &stubGateway{reply: "ok"})

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)

	tests := []struct {
		name        string
		userID      string
		chatID      string
		req         *models.SendMessageRequest
		expectedErr error
	}{
		{
			name:        "nil request",
			userID:      "user-1",
			chatID:      chat.ID,
			req:         nil,
			expectedErr: services.ErrInvalidInput,
		},
		{
			name:        "blank message",
			userID:      "user-1",
			chatID:      chat.ID,
			req:         &models.SendMessageRequest{Message: "   "},
			expectedErr: services.ErrInvalidInput,
		},
		{
			name:        "invalid language",
			userID:      "user-1",
			chatID:      chat.ID,
			req:         &models.SendMessageRequest{Message: "hi", Language: "french"},
			expectedErr: services.ErrInvalidInput,
		},
		{
			name:        "unknown chat",
			userID:      "user-1",
			chatID:      "missing",
			req:         &models.SendMessageRequest{Message: "hi"},
			expectedErr: db.ErrNotFound,
		},
		{
			name:        "another user's chat",
			userID:      "user-2",
			chatID:      chat.ID,
			req:         &models.SendMessageRequest{Message: "hi"},
			expectedErr: db.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.SendTurn(tt.userID, tt.chatID, tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.expectedErr), "error %v does not wrap %v", err, tt.expectedErr)
		})
	}
}

func TestSendTurnConcurrent(t *testing.T) {
	service, chats, repo := newTutorService(t, &stubGateway{reply: "answer"})

	chat, err := chats.CreateChat("user-1", nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = service.SendTurn("user-1", chat.ID, &models.SendMessageRequest{
				Message: fmt.Sprintf("question %d", i),
			})
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	// Both turns persist a full user/assistant pair. The title is rewritten
	// at most once; if the appends interleave, neither turn observes itself
	// as the first and the placeholder survives.
	messages, err := chats.ListMessages("user-1", chat.ID)
	require.NoError(t, err)
	assert.Len(t, messages, 4)

	repo.mu.Lock()
	title := repo.chats[chat.ID].Title
	repo.mu.Unlock()
	assert.Contains(t, []string{models.PlaceholderChatTitle, "question 0", "question 1"}, title)
}

func TestDeriveChatTitle(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{
			name:     "short message kept whole",
			message:  "Explain projectile motion",
			expected: "Explain projectile motion",
		},
		{
			name:     "exactly at limit kept whole",
			message:  strings.Repeat("x", 30),
			expected: strings.Repeat("x", 30),
		},
		{
			name:     "long message truncated",
			message:  strings.Repeat("x", 31),
			expected: strings.Repeat("x", 30) + "...",
		},
		{
			name:     "hindi truncated on rune boundary",
			message:  strings.Repeat("प", 35),
			expected: strings.Repeat("प", 30) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveChatTitle(tt.message))
		})
	}
}
