package tutor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"studybuddy/llm"
	"studybuddy/models"
	"studybuddy/services"
	"studybuddy/services/genai"
)

const titleMaxLength = 30

// Service drives one tutoring turn end-to-end: append the user message, load
// the trailing context, call the model, append the assistant message. Each
// invocation is an independent single-pass pipeline; nothing survives a
// failure for a later retry to pick up.
type Service struct {
	chats   *services.ChatService
	gateway llm.Gateway
}

func NewService(chats *services.ChatService, gateway llm.Gateway) *Service {
	return &Service{chats: chats, gateway: gateway}
}

func (s *Service) SendTurn(userID, chatID string, req *models.SendMessageRequest) (*models.TurnResult, error) {
	log.Printf("[INFO] Starting tutoring turn for chat %s", chatID)

	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", services.ErrInvalidInput)
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is required", services.ErrInvalidInput)
	}

	language := req.Language
	if language == "" {
		language = models.LanguageEnglish
	}
	if !models.ValidLanguage(language) {
		return nil, fmt.Errorf("%w: invalid language %s", services.ErrInvalidInput, language)
	}

	chat, err := s.chats.GetChat(userID, chatID)
	if err != nil {
		return nil, err
	}

	userMessage, err := s.chats.AppendMessage(userID, chatID, models.RoleUser, message, language, req.IsVoice)
	if err != nil {
		return nil, err
	}

	history, err := s.chats.ListMessages(userID, chatID)
	if err != nil {
		return nil, err
	}
	firstTurn := len(history) == 1

	prompt := genai.BuildTutorPrompt(chat.Subject, language, history)

	// Detached from any request context: an abandoned caller discards the
	// result, but the turn still completes and persists server-side.
	ctx := context.Background()
	log.Printf("[INFO] Calling LLM for tutoring turn in chat %s", chatID)
	reply, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		log.Printf("[ERROR] Tutoring generation failed for chat %s: %v", chatID, err)
		return nil, err
	}

	assistantMessage, err := s.chats.AppendMessage(userID, chatID, models.RoleAssistant, reply, language, false)
	if err != nil {
		return nil, err
	}

	title := chat.Title
	if firstTurn {
		derived := DeriveChatTitle(message)
		renamed, err := s.chats.RenameChatOnce(chatID, derived)
		if err != nil {
			log.Printf("[ERROR] Title rewrite failed for chat %s: %v", chatID, err)
		} else if renamed {
			title = derived
		}
	}

	log.Printf("[INFO] Successfully completed tutoring turn for chat %s", chatID)
	return &models.TurnResult{
		UserMessage:      userMessage,
		AssistantMessage: assistantMessage,
		ChatTitle:        title,
	}, nil
}

// DeriveChatTitle truncates the first user message to the title length.
// Runes, not bytes: Hindi messages must not be cut mid-character.
func DeriveChatTitle(firstMessage string) string {
	runes := []rune(firstMessage)
	if len(runes) <= titleMaxLength {
		return firstMessage
	}
	return string(runes[:titleMaxLength]) + "..."
}
