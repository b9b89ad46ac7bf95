package genai

import (
	"fmt"
	"strings"
	"testing"

	"studybuddy/models"
)

func TestBuildTutorPromptWindow(t *testing.T) {
	// The last message is the one being answered; the window caps the
	// messages before it at 5, so at most 6 turns reach the model.
	tests := []struct {
		name          string
		messageCount  int
		expectedTurns int
	}{
		{name: "single message", messageCount: 1, expectedTurns: 1},
		{name: "below window", messageCount: 4, expectedTurns: 4},
		{name: "window plus current", messageCount: 6, expectedTurns: 6},
		{name: "above window", messageCount: 9, expectedTurns: 6},
		{name: "well above window", messageCount: 40, expectedTurns: 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			messages := make([]*models.Message, 0, tt.messageCount)
			for i := 0; i < tt.messageCount; i++ {
				role := models.RoleUser
				if i%2 == 1 {
					role = models.RoleAssistant
				}
				messages = append(messages, &models.Message{
					Role:    role,
					Content: fmt.Sprintf("message %d", i),
				})
			}

			request := BuildTutorPrompt(nil, models.LanguageEnglish, messages)

			if len(request.Turns) != tt.expectedTurns {
				t.Fatalf("BuildTutorPrompt() carried %d turns, expected %d", len(request.Turns), tt.expectedTurns)
			}

			// The window keeps the most recent messages, the one being
			// answered last.
			last := request.Turns[len(request.Turns)-1]
			expectedLast := fmt.Sprintf("message %d", tt.messageCount-1)
			if last.Content != expectedLast {
				t.Errorf("last turn content = %q, expected %q", last.Content, expectedLast)
			}

			first := request.Turns[0]
			expectedFirst := fmt.Sprintf("message %d", tt.messageCount-tt.expectedTurns)
			if first.Content != expectedFirst {
				t.Errorf("first turn content = %q, expected %q", first.Content, expectedFirst)
			}
		})
	}
}

func TestBuildTutorPromptSystem(t *testing.T) {
	physics := models.SubjectPhysics

	tests := []struct {
		name     string
		subject  *string
		language string
		contains []string
	}{
		{
			name:     "subject focus",
			subject:  &physics,
			language: models.LanguageEnglish,
			contains: []string{"Focus on physics", "Language preference: english"},
		},
		{
			name:     "no subject falls back to general",
			subject:  nil,
			language: models.LanguageHindi,
			contains: []string{"General JEE topics", "Language preference: hindi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := BuildTutorPrompt(tt.subject, tt.language, nil)

			for _, want := range tt.contains {
				if !strings.Contains(request.System, want) {
					t.Errorf("system prompt missing %q", want)
				}
			}

			if request.Temperature != 0.7 {
				t.Errorf("temperature = %v, expected 0.7", request.Temperature)
			}
			if request.MaxTokens != 1500 {
				t.Errorf("max tokens = %d, expected 1500", request.MaxTokens)
			}
		})
	}
}

func TestBuildTestPrompt(t *testing.T) {
	request := BuildTestPrompt(models.SubjectChemistry, models.DifficultyHard, 20)

	if !strings.Contains(request.System, "Generate 20 multiple choice questions for chemistry at hard level") {
		t.Errorf("system prompt missing generation instruction: %q", request.System)
	}

	// The response schema is embedded so the model sees the exact shape
	// ParseTestDocument will demand.
	for _, field := range []string{"questions", "correct_answer", "difficulty_reason"} {
		if !strings.Contains(request.System, field) {
			t.Errorf("system prompt missing schema field %q", field)
		}
	}

	if len(request.Turns) != 1 {
		t.Fatalf("expected a single user turn, got %d", len(request.Turns))
	}
	if request.Turns[0].Role != models.RoleUser {
		t.Errorf("turn role = %q, expected user", request.Turns[0].Role)
	}
	if request.Temperature != 0.8 {
		t.Errorf("temperature = %v, expected 0.8", request.Temperature)
	}
	if request.MaxTokens != 4000 {
		t.Errorf("max tokens = %d, expected 4000", request.MaxTokens)
	}
}

func TestBuildMaterialPrompt(t *testing.T) {
	mathematics := models.SubjectMathematics

	tests := []struct {
		name     string
		subject  *string
		contains string
	}{
		{name: "with subject", subject: &mathematics, contains: "Subject: mathematics"},
		{name: "without subject", subject: nil, contains: "Please process this document content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := BuildMaterialPrompt("Integration by parts: u dv = uv - v du", tt.subject)

			if len(request.Turns) != 1 {
				t.Fatalf("expected a single user turn, got %d", len(request.Turns))
			}
			if !strings.Contains(request.Turns[0].Content, tt.contains) {
				t.Errorf("user turn missing %q: %q", tt.contains, request.Turns[0].Content)
			}
			if !strings.Contains(request.Turns[0].Content, "Integration by parts") {
				t.Errorf("user turn missing extracted text")
			}

			for _, field := range []string{"summary", "flashcards", "key_topics"} {
				if !strings.Contains(request.System, field) {
					t.Errorf("system prompt missing schema field %q", field)
				}
			}

			if request.MaxTokens != 2000 {
				t.Errorf("max tokens = %d, expected 2000", request.MaxTokens)
			}
		})
	}
}
