package models

import "time"

const (
	SubjectPhysics     = "physics"
	SubjectChemistry   = "chemistry"
	SubjectMathematics = "mathematics"

	LanguageEnglish = "english"
	LanguageHindi   = "hindi"
	LanguageMixed   = "mixed"

	RoleUser      = "user"
	RoleAssistant = "assistant"

	// Title a chat is created with, rewritten once from the first user message.
	PlaceholderChatTitle = "New Chat"
)

type Chat struct {
	ID        string    `json:"id" db:"id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Title     string    `json:"title" db:"title"`
	Subject   *string   `json:"subject" db:"subject"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type Message struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	IsVoice   bool      `json:"is_voice" db:"is_voice"`
	Language  string    `json:"language" db:"language"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateChatRequest struct {
	Subject *string `json:"subject,omitempty"`
}

type SendMessageRequest struct {
	Message  string `json:"message"`
	Language string `json:"language"`
	IsVoice  bool   `json:"is_voice"`
}

// TurnResult is what one completed tutoring turn hands back to the caller:
// both persisted messages plus the chat title, which may have just been
// rewritten from the first user message.
type TurnResult struct {
	UserMessage      *Message `json:"user_message"`
	AssistantMessage *Message `json:"assistant_message"`
	ChatTitle        string   `json:"chat_title"`
}

func ValidSubject(subject string) bool {
	switch subject {
	case SubjectPhysics, SubjectChemistry, SubjectMathematics:
		return true
	}
	return false
}

func ValidLanguage(language string) bool {
	switch language {
	case LanguageEnglish, LanguageHindi, LanguageMixed:
		return true
	}
	return false
}
