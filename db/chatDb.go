package db

import (
	"database/sql"
	"fmt"

	"studybuddy/models"

	_ "github.com/lib/pq"
)

type ChatRepository interface {
	CreateChat(chat *models.Chat) error
	GetChatByID(id, userID string) (*models.Chat, error)
	GetChatsByUser(userID string) ([]*models.Chat, error)
	CreateMessage(message *models.Message) error
	GetMessagesByChat(chatID string) ([]*models.Message, error)
	RenameChatIfPlaceholder(chatID, title string) (bool, error)
}

type PostgresChatRepository struct {
	db *sql.DB
}

func NewPostgresChatRepository(databaseURL string) (*PostgresChatRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresChatRepository{db: db}, nil
}

func (r *PostgresChatRepository) CreateChat(chat *models.Chat) error {
	query := `
		INSERT INTO studybuddy.chats (user_id, title, subject)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	row := r.db.QueryRow(query, chat.UserID, chat.Title, chat.Subject)

	if err := row.Scan(&chat.ID, &chat.CreatedAt, &chat.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create chat: %w", err)
	}

	return nil
}

func (r *PostgresChatRepository) GetChatByID(id, userID string) (*models.Chat, error) {
	query := `
		SELECT id, user_id, title, subject, created_at, updated_at
		FROM studybuddy.chats
		WHERE id = $1 AND user_id = $2`

	chat := &models.Chat{}
	row := r.db.QueryRow(query, id, userID)

	err := row.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Subject, &chat.CreatedAt, &chat.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	return chat, nil
}

func (r *PostgresChatRepository) GetChatsByUser(userID string) ([]*models.Chat, error) {
	query := `
		SELECT id, user_id, title, subject, created_at, updated_at
		FROM studybuddy.chats
		WHERE user_id = $1
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chats: %w", err)
	}
	defer rows.Close()

	chats := make([]*models.Chat, 0)
	for rows.Next() {
		chat := &models.Chat{}
		err := rows.Scan(&chat.ID, &chat.UserID, &chat.Title, &chat.Subject, &chat.CreatedAt, &chat.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over chats: %w", err)
	}

	return chats, nil
}

// CreateMessage appends one message and bumps the parent chat's updated_at in
// the same transaction. Message order is whatever created_at the database
// assigns; concurrent appends to the same chat may interleave.
func (r *PostgresChatRepository) CreateMessage(message *models.Message) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`UPDATE studybuddy.chats SET updated_at = now() WHERE id = $1`, message.ChatID)
	if err != nil {
		return fmt.Errorf("failed to touch chat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	query := `
		INSERT INTO studybuddy.messages (chat_id, role, content, is_voice, language)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	row := tx.QueryRow(query, message.ChatID, message.Role, message.Content, message.IsVoice, message.Language)
	if err := row.Scan(&message.ID, &message.CreatedAt); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit message: %w", err)
	}

	return nil
}

func (r *PostgresChatRepository) GetMessagesByChat(chatID string) ([]*models.Message, error) {
	query := `
		SELECT id, chat_id, role, content, is_voice, language, created_at
		FROM studybuddy.messages
		WHERE chat_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(query, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*models.Message, 0)
	for rows.Next() {
		message := &models.Message{}
		err := rows.Scan(&message.ID, &message.ChatID, &message.Role, &message.Content,
			&message.IsVoice, &message.Language, &message.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, message)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over messages: %w", err)
	}

	return messages, nil
}

// RenameChatIfPlaceholder sets the title only while it still equals the
// placeholder, so a concurrent first turn cannot clobber an earlier rewrite.
// Losing the race is not an error; it reports false so the caller does not
// present a title that never landed.
func (r *PostgresChatRepository) RenameChatIfPlaceholder(chatID, title string) (bool, error) {
	query := `UPDATE studybuddy.chats SET title = $1 WHERE id = $2 AND title = $3`

	result, err := r.db.Exec(query, title, chatID, models.PlaceholderChatTitle)
	if err != nil {
		return false, fmt.Errorf("failed to rename chat: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return affected > 0, nil
}

func (r *PostgresChatRepository) Close() error {
	return r.db.Close()
}
