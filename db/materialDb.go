package db

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"studybuddy/models"

	_ "github.com/lib/pq"
)

type MaterialRepository interface {
	CreateMaterial(material *models.StudyMaterial) error
	GetMaterialByID(id, userID string) (*models.StudyMaterial, error)
	GetMaterialsByUser(userID string) ([]*models.StudyMaterial, error)
	DeleteMaterial(id, userID string) error
}

type PostgresMaterialRepository struct {
	db *sql.DB
}

func NewPostgresMaterialRepository(databaseURL string) (*PostgresMaterialRepository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresMaterialRepository{db: db}, nil
}

func (r *PostgresMaterialRepository) CreateMaterial(material *models.StudyMaterial) error {
	flashcardsJSON, err := json.Marshal(material.Flashcards)
	if err != nil {
		return fmt.Errorf("failed to marshal flashcards: %w", err)
	}

	query := `
		INSERT INTO studybuddy.study_materials (user_id, title, file_name, file_path, subject, summary, flashcards)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	row := r.db.QueryRow(query, material.UserID, material.Title, material.FileName,
		material.FilePath, material.Subject, material.Summary, flashcardsJSON)

	if err := row.Scan(&material.ID, &material.CreatedAt); err != nil {
		return fmt.Errorf("failed to create study material: %w", err)
	}

	return nil
}

func (r *PostgresMaterialRepository) GetMaterialByID(id, userID string) (*models.StudyMaterial, error) {
	query := `
		SELECT id, user_id, title, file_name, file_path, subject, summary, flashcards, created_at
		FROM studybuddy.study_materials
		WHERE id = $1 AND user_id = $2`

	material := &models.StudyMaterial{}
	var flashcardsJSON []byte
	row := r.db.QueryRow(query, id, userID)

	err := row.Scan(&material.ID, &material.UserID, &material.Title, &material.FileName,
		&material.FilePath, &material.Subject, &material.Summary, &flashcardsJSON, &material.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get study material: %w", err)
	}

	if err := json.Unmarshal(flashcardsJSON, &material.Flashcards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal flashcards: %w", err)
	}

	return material, nil
}

func (r *PostgresMaterialRepository) GetMaterialsByUser(userID string) ([]*models.StudyMaterial, error) {
	query := `
		SELECT id, user_id, title, file_name, file_path, subject, summary, flashcards, created_at
		FROM studybuddy.study_materials
		WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query study materials: %w", err)
	}
	defer rows.Close()

	materials := make([]*models.StudyMaterial, 0)
	for rows.Next() {
		material := &models.StudyMaterial{}
		var flashcardsJSON []byte
		err := rows.Scan(&material.ID, &material.UserID, &material.Title, &material.FileName,
			&material.FilePath, &material.Subject, &material.Summary, &flashcardsJSON, &material.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan study material: %w", err)
		}

		if err := json.Unmarshal(flashcardsJSON, &material.Flashcards); err != nil {
			return nil, fmt.Errorf("failed to unmarshal flashcards: %w", err)
		}

		materials = append(materials, material)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over study materials: %w", err)
	}

	return materials, nil
}

func (r *PostgresMaterialRepository) DeleteMaterial(id, userID string) error {
	query := "DELETE FROM studybuddy.study_materials WHERE id = $1 AND user_id = $2"

	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete study material: %w", err)
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

func (r *PostgresMaterialRepository) Close() error {
	return r.db.Close()
}
