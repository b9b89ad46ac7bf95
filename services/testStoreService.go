package services

import (
	"fmt"
	"log"
	"math"

	"studybuddy/db"
	"studybuddy/models"

	"github.com/samber/lo"
)

type TestStoreService struct {
	repo db.TestRepository
}

func NewTestStoreService(repo db.TestRepository) *TestStoreService {
	return &TestStoreService{repo: repo}
}

// SaveTest persists a generated test as one unit. A test with no questions is
// rejected; validation of the questions themselves happened upstream.
func (s *TestStoreService) SaveTest(test *models.Test) error {
	if len(test.Questions) == 0 {
		return fmt.Errorf("%w: test must have at least one question", ErrInvalidInput)
	}
	if test.TotalQuestions != len(test.Questions) {
		return fmt.Errorf("%w: total questions %d does not match question count %d", ErrInvalidInput, test.TotalQuestions, len(test.Questions))
	}

	if err := s.repo.CreateTest(test); err != nil {
		log.Printf("[ERROR] Failed to save test: %v", err)
		return fmt.Errorf("failed to save test: %w", err)
	}

	log.Printf("[INFO] Successfully saved test %s with %d questions", test.ID, test.TotalQuestions)
	return nil
}

func (s *TestStoreService) GetTest(userID, testID string) (*models.Test, error) {
	if testID == "" {
		return nil, fmt.Errorf("%w: test ID is required", ErrInvalidInput)
	}

	test, err := s.repo.GetTestByID(testID, userID)
	if err != nil {
		log.Printf("[ERROR] Failed to get test %s: %v", testID, err)
		return nil, err
	}

	return test, nil
}

func (s *TestStoreService) ListTests(userID string) ([]*models.Test, error) {
	tests, err := s.repo.GetTestsByUser(userID)
	if err != nil {
		log.Printf("[ERROR] Failed to list tests: %v", err)
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}

	log.Printf("[INFO] Successfully retrieved %d tests", len(tests))
	return tests, nil
}

func (s *TestStoreService) DeleteTest(userID, testID string) error {
	if testID == "" {
		return fmt.Errorf("%w: test ID is required", ErrInvalidInput)
	}

	if err := s.repo.DeleteTest(testID, userID); err != nil {
		log.Printf("[ERROR] Failed to delete test %s: %v", testID, err)
		return err
	}

	log.Printf("[INFO] Successfully deleted test %s", testID)
	return nil
}

// RecordAttempt stores one immutable attempt. Score is always the rounded
// percentage derived from correct/total, never caller-supplied.
func (s *TestStoreService) RecordAttempt(userID, testID string, req *models.RecordAttemptRequest) (*models.TestAttempt, error) {
	log.Printf("[INFO] Starting attempt recording for test %s", testID)

	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", ErrInvalidInput)
	}
	if req.TotalQuestions <= 0 {
		return nil, fmt.Errorf("%w: total questions must be greater than 0", ErrInvalidInput)
	}
	if req.CorrectAnswers < 0 || req.CorrectAnswers > req.TotalQuestions {
		return nil, fmt.Errorf("%w: correct answers %d out of range 0..%d", ErrInvalidInput, req.CorrectAnswers, req.TotalQuestions)
	}

	if _, err := s.repo.GetTestByID(testID, userID); err != nil {
		log.Printf("[ERROR] Attempted test %s not found: %v", testID, err)
		return nil, err
	}

	attempt := &models.TestAttempt{
		TestID:           testID,
		UserID:           userID,
		Score:            ScorePercentage(req.CorrectAnswers, req.TotalQuestions),
		TotalQuestions:   req.TotalQuestions,
		CorrectAnswers:   req.CorrectAnswers,
		TimeTakenMinutes: req.TimeTakenMinutes,
	}

	if err := s.repo.CreateAttempt(attempt); err != nil {
		log.Printf("[ERROR] Failed to record attempt: %v", err)
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}

	log.Printf("[INFO] Successfully recorded attempt %s with score %d%%", attempt.ID, attempt.Score)
	return attempt, nil
}

// ListAttempts returns attempts newest-first. An attempt whose test has been
// deleted is returned with empty test title/subject rather than dropped.
func (s *TestStoreService) ListAttempts(userID string) ([]*models.TestAttempt, error) {
	attempts, err := s.repo.GetAttemptsByUser(userID)
	if err != nil {
		log.Printf("[ERROR] Failed to list attempts: %v", err)
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	return attempts, nil
}

func (s *TestStoreService) AttemptStats(userID string) (*models.AttemptStats, error) {
	attempts, err := s.repo.GetAttemptsByUser(userID)
	if err != nil {
		log.Printf("[ERROR] Failed to load attempts for stats: %v", err)
		return nil, fmt.Errorf("failed to load attempts: %w", err)
	}

	stats := &models.AttemptStats{
		TotalAttempts: len(attempts),
		SubjectScores: make(map[string]int),
	}

	if len(attempts) == 0 {
		return stats, nil
	}

	total := lo.SumBy(attempts, func(a *models.TestAttempt) int { return a.Score })
	stats.AverageScore = int(math.Round(float64(total) / float64(len(attempts))))

	bySubject := lo.GroupBy(attempts, func(a *models.TestAttempt) string { return a.TestSubject })
	for subject, group := range bySubject {
		if subject == "" {
			// Attempts whose test was deleted have no subject to group under.
			continue
		}
		sum := lo.SumBy(group, func(a *models.TestAttempt) int { return a.Score })
		stats.SubjectScores[subject] = int(math.Round(float64(sum) / float64(len(group))))
	}

	return stats, nil
}

// ScorePercentage derives the displayed score from the two stored counters.
func ScorePercentage(correctAnswers, totalQuestions int) int {
	return int(math.Round(100 * float64(correctAnswers) / float64(totalQuestions)))
}
