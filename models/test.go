package models

import "time"

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

type Test struct {
	ID              string     `json:"id" db:"id"`
	UserID          string     `json:"user_id" db:"user_id"`
	Title           string     `json:"title" db:"title"`
	Subject         string     `json:"subject" db:"subject"`
	Difficulty      string     `json:"difficulty" db:"difficulty"`
	TotalQuestions  int        `json:"total_questions" db:"total_questions"`
	DurationMinutes int        `json:"duration_minutes" db:"duration_minutes"`
	Questions       []Question `json:"questions" db:"questions"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
}

type Question struct {
	Question         string            `json:"question"`
	Options          map[string]string `json:"options"`
	CorrectAnswer    string            `json:"correct_answer"`
	Explanation      string            `json:"explanation"`
	Topic            string            `json:"topic"`
	DifficultyReason string            `json:"difficulty_reason"`
}

// TestAttempt references its test by ID only. The test may have been deleted
// since; listings must degrade instead of failing.
type TestAttempt struct {
	ID               string    `json:"id" db:"id"`
	TestID           string    `json:"test_id" db:"test_id"`
	UserID           string    `json:"user_id" db:"user_id"`
	Score            int       `json:"score" db:"score"`
	TotalQuestions   int       `json:"total_questions" db:"total_questions"`
	CorrectAnswers   int       `json:"correct_answers" db:"correct_answers"`
	TimeTakenMinutes *int      `json:"time_taken_minutes" db:"time_taken_minutes"`
	CompletedAt      time.Time `json:"completed_at" db:"completed_at"`

	// Filled in on listings when the referenced test still exists.
	TestTitle   string `json:"test_title,omitempty"`
	TestSubject string `json:"test_subject,omitempty"`
}

type GenerateTestRequest struct {
	Subject       string `json:"subject"`
	Difficulty    string `json:"difficulty"`
	QuestionCount int    `json:"question_count"`
}

type RecordAttemptRequest struct {
	CorrectAnswers   int  `json:"correct_answers"`
	TotalQuestions   int  `json:"total_questions"`
	TimeTakenMinutes *int `json:"time_taken_minutes,omitempty"`
}

type AttemptStats struct {
	TotalAttempts int            `json:"total_attempts"`
	AverageScore  int            `json:"average_score"`
	SubjectScores map[string]int `json:"subject_scores"`
}

func ValidDifficulty(difficulty string) bool {
	switch difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}
