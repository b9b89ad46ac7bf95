package services

import (
	"fmt"
	"log"
	"strings"

	"studybuddy/db"
	"studybuddy/models"
)

// ChatService is the durable record of chats and their ordered messages.
// Messages are append-only; appends bump the parent chat's updated_at.
type ChatService struct {
	repo db.ChatRepository
}

func NewChatService(repo db.ChatRepository) *ChatService {
	return &ChatService{repo: repo}
}

func (s *ChatService) CreateChat(userID string, subject *string) (*models.Chat, error) {
	log.Printf("[INFO] Starting chat creation for user %s", userID)

	if subject != nil && !models.ValidSubject(*subject) {
		log.Printf("[ERROR] Invalid subject provided: %s", *subject)
		return nil, fmt.Errorf("%w: invalid subject %s", ErrInvalidInput, *subject)
	}

	chat := &models.Chat{
		UserID:  userID,
		Title:   models.PlaceholderChatTitle,
		Subject: subject,
	}

	if err := s.repo.CreateChat(chat); err != nil {
		log.Printf("[ERROR] Failed to create chat in repository: %v", err)
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}

	log.Printf("[INFO] Successfully created chat %s", chat.ID)
	return chat, nil
}

func (s *ChatService) GetChat(userID, chatID string) (*models.Chat, error) {
	if chatID == "" {
		return nil, fmt.Errorf("%w: chat ID is required", ErrInvalidInput)
	}

	chat, err := s.repo.GetChatByID(chatID, userID)
	if err != nil {
		log.Printf("[ERROR] Failed to get chat %s: %v", chatID, err)
		return nil, err
	}

	return chat, nil
}

func (s *ChatService) ListChats(userID string) ([]*models.Chat, error) {
	log.Printf("[INFO] Starting list chats for user %s", userID)

	chats, err := s.repo.GetChatsByUser(userID)
	if err != nil {
		log.Printf("[ERROR] Failed to list chats: %v", err)
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}

	log.Printf("[INFO] Successfully retrieved %d chats", len(chats))
	return chats, nil
}

// AppendMessage verifies the chat belongs to the caller, then appends. A
// missing chat surfaces db.ErrNotFound, which callers treat as non-retryable.
func (s *ChatService) AppendMessage(userID, chatID, role, content, language string, isVoice bool) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrInvalidInput)
	}
	if role != models.RoleUser && role != models.RoleAssistant {
		return nil, fmt.Errorf("%w: invalid message role %s", ErrInvalidInput, role)
	}
	if !models.ValidLanguage(language) {
		return nil, fmt.Errorf("%w: invalid language %s", ErrInvalidInput, language)
	}

	if _, err := s.repo.GetChatByID(chatID, userID); err != nil {
		return nil, err
	}

	message := &models.Message{
		ChatID:   chatID,
		Role:     role,
		Content:  content,
		IsVoice:  isVoice,
		Language: language,
	}

	if err := s.repo.CreateMessage(message); err != nil {
		log.Printf("[ERROR] Failed to append message to chat %s: %v", chatID, err)
		return nil, err
	}

	return message, nil
}

func (s *ChatService) ListMessages(userID, chatID string) ([]*models.Message, error) {
	if _, err := s.repo.GetChatByID(chatID, userID); err != nil {
		return nil, err
	}

	messages, err := s.repo.GetMessagesByChat(chatID)
	if err != nil {
		log.Printf("[ERROR] Failed to list messages for chat %s: %v", chatID, err)
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// RenameChatOnce rewrites the chat title from its placeholder. The update is
// conditional on the title still being the placeholder, so it happens at most
// once per chat regardless of concurrent first turns. Returns whether this
// call's title is the one that landed.
func (s *ChatService) RenameChatOnce(chatID, derivedTitle string) (bool, error) {
	if strings.TrimSpace(derivedTitle) == "" {
		return false, fmt.Errorf("%w: derived title is required", ErrInvalidInput)
	}

	renamed, err := s.repo.RenameChatIfPlaceholder(chatID, derivedTitle)
	if err != nil {
		log.Printf("[ERROR] Failed to rename chat %s: %v", chatID, err)
		return false, err
	}

	return renamed, nil
}
