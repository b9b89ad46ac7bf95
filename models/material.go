package models

import "time"

type StudyMaterial struct {
	ID         string      `json:"id" db:"id"`
	UserID     string      `json:"user_id" db:"user_id"`
	Title      string      `json:"title" db:"title"`
	FileName   string      `json:"file_name" db:"file_name"`
	FilePath   string      `json:"file_path" db:"file_path"`
	Subject    *string     `json:"subject" db:"subject"`
	Summary    *string     `json:"summary" db:"summary"`
	Flashcards []Flashcard `json:"flashcards" db:"flashcards"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
	Topic string `json:"topic"`
}

type IngestMaterialRequest struct {
	FileName     string  `json:"file_name"`
	OriginalName string  `json:"original_name"`
	Subject      *string `json:"subject,omitempty"`
}

// IngestResult carries the persisted material together with the key topics
// the model identified. Key topics are returned to the caller but not stored.
type IngestResult struct {
	Material  *StudyMaterial `json:"material"`
	KeyTopics []string       `json:"key_topics"`
}

type UploadResult struct {
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
}
