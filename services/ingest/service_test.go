package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"studybuddy/db"
	"studybuddy/llm"
	"studybuddy/models"
	"studybuddy/services"
	"studybuddy/services/genai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMaterialRepository struct {
	materials map[string]*models.StudyMaterial
	nextID    int
}

func newFakeMaterialRepository() *fakeMaterialRepository {
	return &fakeMaterialRepository{materials: make(map[string]*models.StudyMaterial)}
}

func (r *fakeMaterialRepository) CreateMaterial(material *models.StudyMaterial) error {
	r.nextID++
	material.ID = fmt.Sprintf("material-%d", r.nextID)
	r.materials[material.ID] = material
	return nil
}

func (r *fakeMaterialRepository) GetMaterialByID(id, userID string) (*models.StudyMaterial, error) {
	material, ok := r.materials[id]
	if !ok || material.UserID != userID {
		return nil, db.ErrNotFound
	}
	return material, nil
}

func (r *fakeMaterialRepository) GetMaterialsByUser(userID string) ([]*models.StudyMaterial, error) {
	var result []*models.StudyMaterial
	for _, material := range r.materials {
		if material.UserID == userID {
			result = append(result, material)
		}
	}
	return result, nil
}

func (r *fakeMaterialRepository) DeleteMaterial(id, userID string) error {
	delete(r.materials, id)
	return nil
}

type stubExtractor struct {
	text string
	err  error
}

func (e *stubExtractor) ExtractText(ctx context.Context, objectName string) (string, error) {
	return e.text, e.err
}

type stubGateway struct {
	reply string
	err   error
}

func (g *stubGateway) Complete(ctx context.Context, req llm.Request) (string, error) {
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

func newIngestService(repo *fakeMaterialRepository, extractor Extractor, gateway llm.Gateway) *Service {
	return NewService(services.NewMaterialStoreService(repo), extractor, gateway, nil)
}

func TestIngestMaterial(t *testing.T) {
	repo := newFakeMaterialRepository()
	service := newIngestService(repo,
		&stubExtractor{text: "Ohm's law: V = IR. Resistance in series adds."},
		&stubGateway{reply: `{
			"summary": "Covers Ohm's law and series resistance.",
			"flashcards": [{"front": "V = ?", "back": "IR", "topic": "Current Electricity"}],
			"key_topics": ["Ohm's law", "Series circuits"]
		}`})

	result, err := service.IngestMaterial("user-1", &models.IngestMaterialRequest{
		FileName:     "user-1/abc123.pdf",
		OriginalName: "current-electricity_notes.pdf",
	})
	require.NoError(t, err)

	material := result.Material
	assert.Equal(t, "current electricity notes", material.Title)
	assert.Equal(t, "current-electricity_notes.pdf", material.FileName)
	assert.Equal(t, "user-1/abc123.pdf", material.FilePath)
	require.NotNil(t, material.Summary)
	assert.Equal(t, "Covers Ohm's law and series resistance.", *material.Summary)
	require.Len(t, material.Flashcards, 1)
	assert.Equal(t, "Current Electricity", material.Flashcards[0].Topic)

	// Key topics come back to the caller but are not part of the persisted
	// material.
	assert.Equal(t, []string{"Ohm's law", "Series circuits"}, result.KeyTopics)
	assert.NotEmpty(t, material.ID)
	assert.Contains(t, repo.materials, material.ID)
}

func TestIngestMaterialUnparsableOutput(t *testing.T) {
	repo := newFakeMaterialRepository()
	service := newIngestService(repo,
		&stubExtractor{text: "some text"},
		&stubGateway{reply: "Not JSON at all."})

	result, err := service.IngestMaterial("user-1", &models.IngestMaterialRequest{
		FileName:     "user-1/abc123.txt",
		OriginalName: "notes.txt",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Material.Summary)
	assert.Equal(t, genai.FallbackSummary, *result.Material.Summary)
	assert.NotNil(t, result.Material.Flashcards)
	assert.Empty(t, result.Material.Flashcards)
	assert.NotNil(t, result.KeyTopics)
	assert.Empty(t, result.KeyTopics)

	// The degraded material is still persisted.
	assert.Len(t, repo.materials, 1)
}

func TestIngestMaterialExtractionFailure(t *testing.T) {
	repo := newFakeMaterialRepository()
	service := newIngestService(repo,
		&stubExtractor{err: errors.New("object not found")},
		&stubGateway{reply: "unused"})

	_, err := service.IngestMaterial("user-1", &models.IngestMaterialRequest{
		FileName:     "user-1/missing.pdf",
		OriginalName: "missing.pdf",
	})
	require.Error(t, err)
	assert.Empty(t, repo.materials)
}

func TestIngestMaterialGatewayFailure(t *testing.T) {
	repo := newFakeMaterialRepository()
	gatewayErr := fmt.Errorf("%w: rate limited", llm.ErrGenerationFailed)
	service := newIngestService(repo, &stubExtractor{text: "some text"}, &stubGateway{err: gatewayErr})

	_, err := service.IngestMaterial("user-1", &models.IngestMaterialRequest{
		FileName:     "user-1/abc.txt",
		OriginalName: "abc.txt",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, llm.ErrGenerationFailed))
	assert.Empty(t, repo.materials)
}

func TestIngestMaterialValidation(t *testing.T) {
	service := newIngestService(newFakeMaterialRepository(), &stubExtractor{text: "x"}, &stubGateway{reply: "{}"})

	history := "history"
	tests := []struct {
		name string
		req  *models.IngestMaterialRequest
	}{
		{name: "nil request", req: nil},
		{name: "missing file name", req: &models.IngestMaterialRequest{OriginalName: "a.pdf"}},
		{name: "missing original name", req: &models.IngestMaterialRequest{FileName: "user-1/a.pdf"}},
		{name: "invalid subject", req: &models.IngestMaterialRequest{FileName: "user-1/a.pdf", OriginalName: "a.pdf", Subject: &history}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.IngestMaterial("user-1", tt.req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, services.ErrInvalidInput))
		})
	}
}

func TestTitleFromFileName(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		expected string
	}{
		{name: "hyphens and underscores", fileName: "physics-notes_ch1.pdf", expected: "physics notes ch1"},
		{name: "plain name", fileName: "notes.txt", expected: "notes"},
		{name: "no extension", fileName: "revision-sheet", expected: "revision sheet"},
		{name: "multiple dots", fileName: "ch1.final.pdf", expected: "ch1.final"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromFileName(tt.fileName))
		})
	}
}
