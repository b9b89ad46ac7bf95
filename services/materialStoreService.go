package services

import (
	"fmt"
	"log"
	"strings"

	"studybuddy/db"
	"studybuddy/models"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/samber/lo"
)

type MaterialStoreService struct {
	repo db.MaterialRepository
}

func NewMaterialStoreService(repo db.MaterialRepository) *MaterialStoreService {
	return &MaterialStoreService{repo: repo}
}

func (s *MaterialStoreService) SaveMaterial(material *models.StudyMaterial) error {
	if strings.TrimSpace(material.Title) == "" {
		return fmt.Errorf("%w: material title is required", ErrInvalidInput)
	}
	if material.Flashcards == nil {
		material.Flashcards = []models.Flashcard{}
	}

	if err := s.repo.CreateMaterial(material); err != nil {
		log.Printf("[ERROR] Failed to save study material: %v", err)
		return fmt.Errorf("failed to save study material: %w", err)
	}

	log.Printf("[INFO] Successfully saved study material %s with %d flashcards", material.ID, len(material.Flashcards))
	return nil
}

func (s *MaterialStoreService) GetMaterial(userID, materialID string) (*models.StudyMaterial, error) {
	if materialID == "" {
		return nil, fmt.Errorf("%w: material ID is required", ErrInvalidInput)
	}

	material, err := s.repo.GetMaterialByID(materialID, userID)
	if err != nil {
		log.Printf("[ERROR] Failed to get study material %s: %v", materialID, err)
		return nil, err
	}

	return material, nil
}

func (s *MaterialStoreService) ListMaterials(userID string) ([]*models.StudyMaterial, error) {
	materials, err := s.repo.GetMaterialsByUser(userID)
	if err != nil {
		log.Printf("[ERROR] Failed to list study materials: %v", err)
		return nil, fmt.Errorf("failed to list study materials: %w", err)
	}

	log.Printf("[INFO] Successfully retrieved %d study materials", len(materials))
	return materials, nil
}

func (s *MaterialStoreService) DeleteMaterial(userID, materialID string) error {
	if materialID == "" {
		return fmt.Errorf("%w: material ID is required", ErrInvalidInput)
	}

	if err := s.repo.DeleteMaterial(materialID, userID); err != nil {
		log.Printf("[ERROR] Failed to delete study material %s: %v", materialID, err)
		return err
	}

	log.Printf("[INFO] Successfully deleted study material %s", materialID)
	return nil
}

// SearchMaterials fuzzy-matches the caller's materials against the given
// terms. With no terms, everything is returned.
func (s *MaterialStoreService) SearchMaterials(userID string, searchTerms []string) ([]*models.StudyMaterial, error) {
	log.Printf("[INFO] Starting material search with %d search terms", len(searchTerms))

	materials, err := s.ListMaterials(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get materials for search: %w", err)
	}

	if len(searchTerms) == 0 {
		return materials, nil
	}

	matching := lo.Filter(materials, func(material *models.StudyMaterial, _ int) bool {
		return s.materialMatchesSearch(material, searchTerms)
	})

	log.Printf("[INFO] Found %d materials matching search criteria", len(matching))
	return matching, nil
}

func (s *MaterialStoreService) materialMatchesSearch(material *models.StudyMaterial, searchTerms []string) bool {
	var haystack strings.Builder
	haystack.WriteString(material.Title)
	if material.Summary != nil {
		haystack.WriteString(" ")
		haystack.WriteString(*material.Summary)
	}
	for _, card := range material.Flashcards {
		haystack.WriteString(" ")
		haystack.WriteString(card.Topic)
	}

	content := haystack.String()
	words := strings.Fields(strings.ToLower(content))

	cleanWords := make([]string, 0, len(words))
	for _, word := range words {
		cleanWord := strings.Trim(word, ".,!?;:()[]{}\"'")
		if len(cleanWord) > 0 {
			cleanWords = append(cleanWords, cleanWord)
		}
	}

	for _, term := range searchTerms {
		if fuzzy.MatchFold(term, content) {
			return true
		}
		if len(fuzzy.Find(strings.ToLower(term), cleanWords)) > 0 {
			return true
		}
	}

	return false
}
