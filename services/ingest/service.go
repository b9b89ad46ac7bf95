package ingest

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"studybuddy/llm"
	"studybuddy/models"
	"studybuddy/notify"
	"studybuddy/services"
	"studybuddy/services/genai"

	"github.com/samber/lo"
)

// Extractor supplies already-extracted plain text for a previously uploaded
// document. Parsing binary document formats is not this pipeline's job.
type Extractor interface {
	ExtractText(ctx context.Context, objectName string) (string, error)
}

// Service drives material ingestion: extracted text in, persisted summary and
// flashcards out. Unlike test generation, unparsable model output degrades to
// a fallback document instead of failing the operation.
type Service struct {
	store     *services.MaterialStoreService
	extractor Extractor
	gateway   llm.Gateway
	notifier  *notify.Publisher
}

func NewService(store *services.MaterialStoreService, extractor Extractor, gateway llm.Gateway, notifier *notify.Publisher) *Service {
	return &Service{store: store, extractor: extractor, gateway: gateway, notifier: notifier}
}

func (s *Service) IngestMaterial(userID string, req *models.IngestMaterialRequest) (*models.IngestResult, error) {
	if req == nil {
		return nil, fmt.Errorf("%w: request cannot be nil", services.ErrInvalidInput)
	}
	if strings.TrimSpace(req.FileName) == "" || strings.TrimSpace(req.OriginalName) == "" {
		return nil, fmt.Errorf("%w: file name and original name are required", services.ErrInvalidInput)
	}
	if req.Subject != nil && !models.ValidSubject(*req.Subject) {
		return nil, fmt.Errorf("%w: invalid subject %s", services.ErrInvalidInput, *req.Subject)
	}

	log.Printf("[INFO] Starting material ingestion of %s for user %s", req.OriginalName, userID)

	ctx := context.Background()
	extractedText, err := s.extractor.ExtractText(ctx, req.FileName)
	if err != nil {
		log.Printf("[ERROR] Text extraction failed for %s: %v", req.FileName, err)
		return nil, fmt.Errorf("failed to extract document text: %w", err)
	}

	prompt := genai.BuildMaterialPrompt(extractedText, req.Subject)

	log.Printf("[INFO] Calling LLM for material ingestion of %s", req.OriginalName)
	rawText, err := s.gateway.Complete(ctx, prompt)
	if err != nil {
		log.Printf("[ERROR] Material generation call failed: %v", err)
		return nil, err
	}

	doc := genai.ParseMaterialDocument(rawText)

	flashcards := lo.Map(doc.Flashcards, func(card genai.GeneratedFlashcard, _ int) models.Flashcard {
		return models.Flashcard{Front: card.Front, Back: card.Back, Topic: card.Topic}
	})

	summary := doc.Summary
	material := &models.StudyMaterial{
		UserID:     userID,
		Title:      TitleFromFileName(req.OriginalName),
		FileName:   req.OriginalName,
		FilePath:   req.FileName,
		Subject:    req.Subject,
		Summary:    &summary,
		Flashcards: flashcards,
	}

	if err := s.store.SaveMaterial(material); err != nil {
		return nil, err
	}

	s.notifier.MaterialProcessed(userID, material.ID, material.Title, len(material.Flashcards))

	log.Printf("[INFO] Successfully ingested material %s with %d flashcards", material.ID, len(material.Flashcards))
	return &models.IngestResult{
		Material:  material,
		KeyTopics: doc.KeyTopics,
	}, nil
}

// TitleFromFileName derives the material title from the uploaded file's base
// name: extension stripped, separators normalized to spaces.
func TitleFromFileName(originalName string) string {
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	return strings.NewReplacer("-", " ", "_", " ").Replace(base)
}
