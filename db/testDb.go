package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"studybuddy/models"

	_ "github.com/lib/pq"
)

type TestRepository interface {
	CreateTest(test *models.Test) error
	GetTestByID(id, userID string) (*models.Test, error)
	GetTestsByUser(userID string) ([]*models.Test, error)
	DeleteTest(id, userID string) error
	CreateAttempt(attempt *models.TestAttempt) error
	GetAttemptsByUser(userID string) ([]*models.TestAttempt, error)
}

type PostgresTestRepository struct {
	db *sql.DB
}

func NewPostgresTestRepository(databaseURL string) (*PostgresTestRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresTestRepository{db: db}, nil
}

func (r *PostgresTestRepository) CreateTest(test *models.Test) error {
	questionsJSON, err := json.Marshal(test.Questions)
	if err != nil {
		return fmt.Errorf("failed to marshal questions: %w", err)
	}

	query := `
		INSERT INTO studybuddy.tests (user_id, title, subject, difficulty, total_questions, duration_minutes, questions)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	row := r.db.QueryRow(query, test.UserID, test.Title, test.Subject, test.Difficulty,
		test.TotalQuestions, test.DurationMinutes, questionsJSON)

	if err := row.Scan(&test.ID, &test.CreatedAt); err != nil {
		return fmt.Errorf("failed to create test: %w", err)
	}

	return nil
}

func (r *PostgresTestRepository) GetTestByID(id, userID string) (*models.Test, error) {
	query := `
		SELECT id, user_id, title, subject, difficulty, total_questions, duration_minutes, questions, created_at
		FROM studybuddy.tests
		WHERE id = $1 AND user_id = $2`

	test := &models.Test{}
	var questionsJSON []byte
	row := r.db.QueryRow(query, id, userID)

	err := row.Scan(&test.ID, &test.UserID, &test.Title, &test.Subject, &test.Difficulty,
		&test.TotalQuestions, &test.DurationMinutes, &questionsJSON, &test.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get test: %w", err)
	}

	if err := json.Unmarshal(questionsJSON, &test.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}

	return test, nil
}

func (r *PostgresTestRepository) GetTestsByUser(userID string) ([]*models.Test, error) {
	query := `
		SELECT id, user_id, title, subject, difficulty, total_questions, duration_minutes, questions, created_at
		FROM studybuddy.tests
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tests: %w", err)
	}
	defer rows.Close()

	tests := make([]*models.Test, 0)
	for rows.Next() {
		test := &models.Test{}
		var questionsJSON []byte
		err := rows.Scan(&test.ID, &test.UserID, &test.Title, &test.Subject, &test.Difficulty,
			&test.TotalQuestions, &test.DurationMinutes, &questionsJSON, &test.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan test: %w", err)
		}

		if err := json.Unmarshal(questionsJSON, &test.Questions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
		}

		tests = append(tests, test)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over tests: %w", err)
	}

	return tests, nil
}

func (r *PostgresTestRepository) DeleteTest(id, userID string) error {
	query := "DELETE FROM studybuddy.tests WHERE id = $1 AND user_id = $2"

	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete test: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *PostgresTestRepository) CreateAttempt(attempt *models.TestAttempt) error {
	query := `
		INSERT INTO studybuddy.test_attempts (test_id, user_id, score, total_questions, correct_answers, time_taken_minutes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, completed_at`

	row := r.db.QueryRow(query, attempt.TestID, attempt.UserID, attempt.Score,
		attempt.TotalQuestions, attempt.CorrectAnswers, attempt.TimeTakenMinutes)

	if err := row.Scan(&attempt.ID, &attempt.CompletedAt); err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}

	return nil
}

// GetAttemptsByUser joins the test title/subject when the test still exists.
// Attempts whose test has been deleted are returned with those fields empty.
func (r *PostgresTestRepository) GetAttemptsByUser(userID string) ([]*models.TestAttempt, error) {
	query := `
		SELECT a.id, a.test_id, a.user_id, a.score, a.total_questions, a.correct_answers,
		       a.time_taken_minutes, a.completed_at, t.title, t.subject
		FROM studybuddy.test_attempts a
		LEFT JOIN studybuddy.tests t ON t.id = a.test_id
		WHERE a.user_id = $1
		ORDER BY a.completed_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	attempts := make([]*models.TestAttempt, 0)
	for rows.Next() {
		attempt := &models.TestAttempt{}
		var title, subject sql.NullString
		err := rows.Scan(&attempt.ID, &attempt.TestID, &attempt.UserID, &attempt.Score,
			&attempt.TotalQuestions, &attempt.CorrectAnswers, &attempt.TimeTakenMinutes,
			&attempt.CompletedAt, &title, &subject)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}

		attempt.TestTitle = title.String
		attempt.TestSubject = subject.String
		attempts = append(attempts, attempt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over attempts: %w", err)
	}

	return attempts, nil
}

func (r *PostgresTestRepository) Close() error {
	return r.db.Close()
}
