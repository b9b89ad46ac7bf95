package genai

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrMalformedGeneration means the model responded but its output failed
// schema validation. There is no automatic retry: the caller resubmits if it
// wants another attempt.
var ErrMalformedGeneration = errors.New("malformed model output")

// FallbackSummary is persisted when material generation produced unparsable
// output. Partial material is considered usable; a test with broken answers
// is not, hence the asymmetry with ParseTestDocument.
const FallbackSummary = "Study material processed successfully. Please review the uploaded content."

const optionsPerQuestion = 4

type TestDocument struct {
	Questions []GeneratedQuestion `json:"questions" jsonschema:"required,description=The generated multiple choice questions"`
}

type GeneratedQuestion struct {
	Question         string            `json:"question" jsonschema:"required,description=Question text"`
	Options          map[string]string `json:"options" jsonschema:"required,description=Exactly 4 labeled options keyed A B C D"`
	CorrectAnswer    string            `json:"correct_answer" jsonschema:"required,description=Label of the correct option"`
	Explanation      string            `json:"explanation" jsonschema:"required,description=Detailed explanation of the correct answer"`
	Topic            string            `json:"topic" jsonschema:"required,description=Specific topic or concept covered"`
	DifficultyReason string            `json:"difficulty_reason" jsonschema:"required,description=Why the question matches the requested difficulty"`
}

type MaterialDocument struct {
	Summary    string               `json:"summary" jsonschema:"required,description=Comprehensive summary of the main concepts"`
	Flashcards []GeneratedFlashcard `json:"flashcards" jsonschema:"required,description=Flashcards for key concepts"`
	KeyTopics  []string             `json:"key_topics" jsonschema:"required,description=Main topics covered"`
}

type GeneratedFlashcard struct {
	Front string `json:"front" jsonschema:"required,description=Question or concept to remember"`
	Back  string `json:"back" jsonschema:"required,description=Answer or explanation"`
	Topic string `json:"topic" jsonschema:"required,description=Specific topic this relates to"`
}

// ParseTestDocument hard-validates generated test output. Any parse failure
// or schema violation is ErrMalformedGeneration; nothing partially valid is
// ever returned.
func ParseTestDocument(rawText string) (*TestDocument, error) {
	var doc TestDocument
	if err := json.Unmarshal([]byte(stripCodeFence(rawText)), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedGeneration, err)
	}

	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in document", ErrMalformedGeneration)
	}

	for i, q := range doc.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("%w: question %d has no text", ErrMalformedGeneration, i+1)
		}
		if len(q.Options) != optionsPerQuestion {
			return nil, fmt.Errorf("%w: question %d has %d options, want %d", ErrMalformedGeneration, i+1, len(q.Options), optionsPerQuestion)
		}
		if _, ok := q.Options[q.CorrectAnswer]; !ok {
			return nil, fmt.Errorf("%w: question %d correct answer %q is not an option label", ErrMalformedGeneration, i+1, q.CorrectAnswer)
		}
	}

	return &doc, nil
}

// ParseMaterialDocument soft-validates material output: unparsable text
// degrades to a fallback document instead of failing the ingestion.
func ParseMaterialDocument(rawText string) *MaterialDocument {
	var doc MaterialDocument
	if err := json.Unmarshal([]byte(stripCodeFence(rawText)), &doc); err != nil {
		log.Printf("[ERROR] Failed to parse material document, using fallback: %v", err)
		return fallbackMaterialDocument()
	}

	if strings.TrimSpace(doc.Summary) == "" {
		doc.Summary = FallbackSummary
	}
	if doc.Flashcards == nil {
		doc.Flashcards = []GeneratedFlashcard{}
	}
	if doc.KeyTopics == nil {
		doc.KeyTopics = []string{}
	}

	return &doc
}

func fallbackMaterialDocument() *MaterialDocument {
	return &MaterialDocument{
		Summary:    FallbackSummary,
		Flashcards: []GeneratedFlashcard{},
		KeyTopics:  []string{},
	}
}

// Models frequently wrap JSON in a Markdown code fence even when told not to.
// Stripping the fence is the only repair attempted.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
