package testgen

import (
	"context"
	"fmt"
	"log"
	"strings"

	"studybuddy/llm"
	"studybuddy/models"
	"studybuddy/notify"
	"studybuddy/services"
	"studybuddy/services/genai"

	"github.com/samber/lo"
)

const (
	DefaultQuestionCount = 15
	maxQuestionCount     = 50
)

// Service drives test generation: build the prompt, call the model once,
// hard-validate, persist the test atomically. Malformed model output is
// surfaced to the caller; there is no hidden retry loop.
type Service struct {
	store    *services.TestStoreService
	gateway  llm.Gateway
	notifier *notify.Publisher
}

func NewService(store *services.TestStoreService, gateway llm.Gateway, notifier *notify.Publisher) *Service {
	return &Service{store: store, gateway: gateway, notifier: notifier}
}

func (s *Service) GenerateTest(userID string, req *models.GenerateTestRequest) (*models.Test, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", services.ErrInvalidInput)
	}
	if !models.ValidSubject(req.Subject) {
		return nil, fmt.Errorf("%w: invalid subject %s", services.ErrInvalidInput, req.Subject)
	}
	if !models.ValidDifficulty(req.Difficulty) {
		return nil, fmt.Errorf("%w: invalid difficulty %s", services.ErrInvalidInput, req.Difficulty)
	}

	questionCount := req.QuestionCount
	if questionCount == 0 {
		questionCount = DefaultQuestionCount
	}
	if questionCount < 1 || questionCount > maxQuestionCount {
		return nil, fmt.Errorf("%w: question count %d out of range 1..%d", services.ErrInvalidInput, questionCount, maxQuestionCount)
	}

	log.Printf("[INFO] Generating %d %s %s questions for user %s", questionCount, req.Difficulty, req.Subject, userID)

	prompt := genai.BuildTestPrompt(req.Subject, req.Difficulty, questionCount)

	ctx := context.Background()
	rawText, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		log.Printf("[ERROR] Test generation call failed: %v", err)
		return nil, err
	}

	doc, err := genai.ParseTestDocument(rawText)
	if err != nil {
		log.Printf("[ERROR] Test generation output rejected: %v", err)
		return nil, err
	}

	questions := lo.Map(doc.Questions, func(q genai.GeneratedQuestion, _ int) models.Question {
		return models.Question{
			Question:         q.Question,
			Options:          q.Options,
			CorrectAnswer:    q.CorrectAnswer,
			Explanation:      q.Explanation,
			Topic:            q.Topic,
			DifficultyReason: q.DifficultyReason,
		}
	})

	test := &models.Test{
		UserID:          userID,
		Title:           testTitle(req.Subject, req.Difficulty),
		Subject:         req.Subject,
		Difficulty:      req.Difficulty,
		TotalQuestions:  len(questions),
		DurationMinutes: durationMinutes(len(questions)),
		Questions:       questions,
	}

	if err := s.store.SaveTest(test); err != nil {
		return nil, err
	}

	s.notifier.TestGenerated(userID, test.ID, test.Subject, test.Title, test.TotalQuestions)

	log.Printf("[INFO] Successfully generated test %s with %d questions", test.ID, test.TotalQuestions)
	return test, nil
}

// 2 minutes per question, minimum 30.
func durationMinutes(questionCount int) int {
	if d := 2 * questionCount; d > 30 {
		return d
	}
	return 30
}

func testTitle(subject, difficulty string) string {
	return fmt.Sprintf("%s - %s Level", capitalize(subject), capitalize(difficulty))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
