package genai

import (
	"encoding/json"
	"fmt"
	"strings"

	"studybuddy/llm"
	"studybuddy/models"

	"github.com/invopop/jsonschema"
)

// ContextWindowSize is the number of prior messages a tutor prompt carries
// alongside the message being answered. Older messages are dropped; this is a
// sliding window, not a token budget.
const ContextWindowSize = 5

const (
	tutorSystemPrompt = `You are an expert AI tutor for JEE (Joint Entrance Examination) preparation in India. You specialize in Physics, Chemistry, and Mathematics.

Key guidelines:
1. Provide clear, step-by-step explanations for all problems
2. Use Indian educational context and examples
3. Include relevant formulas and concepts
4. Encourage problem-solving thinking
5. Be supportive and motivating

Language preference: %s
- If language is "hindi", respond primarily in Hindi with key terms in English
- If language is "english", respond in English
- If language is "mixed", use both languages naturally

Subject context: %s

Always end responses with an encouraging note and ask if the student needs clarification on any part.`

	testSystemPrompt = `You are an expert JEE question generator. Generate %d multiple choice questions for %s at %s level.

For each question, provide:
1. Question text
2. 4 options (A, B, C, D)
3. Correct answer (letter)
4. Detailed explanation
5. Topic/concept covered
6. Difficulty justification

Respond with a single JSON document and no surrounding prose, matching this schema:
%s

Subject-specific guidelines:
- Physics: Include numerical problems, concepts, laws
- Chemistry: Cover organic, inorganic, physical chemistry
- Mathematics: Include calculus, algebra, geometry, trigonometry

Ensure questions are:
- JEE Main/Advanced style
- Conceptually accurate
- Appropriately challenging for %s level
- Well-formatted with clear options`

	materialSystemPrompt = `You are an AI study assistant that helps students create effective study materials from uploaded documents.

Your task is to:
1. Create a comprehensive summary of the content
2. Generate flashcards for key concepts
3. Identify important formulas and definitions

Respond with a single JSON document and no surrounding prose, matching this schema:
%s

Focus on creating study materials that would be helpful for JEE preparation.`
)

// BuildTutorPrompt assembles a tutoring request from the chat's trailing
// messages. The last message is the user message being answered; it always
// goes to the model, on top of the ContextWindowSize most recent messages
// before it.
func BuildTutorPrompt(subject *string, language string, trailing []*models.Message) llm.Request {
	subjectContext := "General JEE topics"
	if subject != nil && *subject != "" {
		subjectContext = fmt.Sprintf("Focus on %s", *subject)
	}

	if len(trailing) > ContextWindowSize+1 {
		trailing = trailing[len(trailing)-(ContextWindowSize+1):]
	}

	turns := make([]llm.Turn, 0, len(trailing))
	for _, msg := range trailing {
		turns = append(turns, llm.Turn{Role: msg.Role, Content: msg.Content})
	}

	return llm.Request{
		System:      fmt.Sprintf(tutorSystemPrompt, language, subjectContext),
		Turns:       turns,
		Temperature: 0.7,
		MaxTokens:   1500,
	}
}

// BuildTestPrompt requests exactly questionCount multiple-choice questions as
// one structured document. The expected schema is embedded in the prompt, but
// the model gives no guarantee of honoring it; ParseTestDocument is the
// authority.
func BuildTestPrompt(subject, difficulty string, questionCount int) llm.Request {
	system := fmt.Sprintf(testSystemPrompt, questionCount, subject, difficulty,
		testDocumentSchema, difficulty)

	return llm.Request{
		System: system,
		Turns: []llm.Turn{
			{
				Role:    "user",
				Content: fmt.Sprintf("Generate %d %s level %s questions for JEE preparation.", questionCount, difficulty, subject),
			},
		},
		Temperature: 0.8,
		MaxTokens:   4000,
	}
}

func BuildMaterialPrompt(extractedText string, subject *string) llm.Request {
	content := fmt.Sprintf("Please process this document content and create study materials:\n\n%s", extractedText)
	if subject != nil && *subject != "" {
		content = fmt.Sprintf("Subject: %s\n\n%s", *subject, content)
	}

	return llm.Request{
		System: fmt.Sprintf(materialSystemPrompt, materialDocumentSchema),
		Turns: []llm.Turn{
			{Role: "user", Content: content},
		},
		Temperature: 0.7,
		MaxTokens:   2000,
	}
}

var (
	testDocumentSchema     = documentSchema[TestDocument]()
	materialDocumentSchema = documentSchema[MaterialDocument]()
)

func documentSchema[T any]() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("failed to marshal document schema: %v", err))
	}

	return strings.TrimSpace(string(out))
}
