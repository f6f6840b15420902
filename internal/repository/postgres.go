package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"safety-lms/backend/pkg/models"
)

//go:embed schema.sql
var schemaSQL string

// Postgres is a PostgreSQL implementation of the Repository interface.
type Postgres struct {
	db *pgxpool.Pool
}

// NewPostgres creates a new Postgres repository.
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Postgres) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// GetScenario returns a scenario linked to the course.
func (s *Postgres) GetScenario(ctx context.Context, courseID, scenarioID string) (*models.ScenarioDocument, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, `
		SELECT s.document FROM scenarios s
		JOIN course_scenarios cs ON cs.scenario_id = s.id
		WHERE cs.course_id = $1 AND s.id = $2`, courseID, scenarioID).Scan(&raw)
	return decodeScenario(raw, err)
}

// FindScenario returns a scenario by id regardless of course.
func (s *Postgres) FindScenario(ctx context.Context, scenarioID string) (*models.ScenarioDocument, error) {
	var raw []byte
	err := s.db.QueryRow(ctx, "SELECT document FROM scenarios WHERE id = $1", scenarioID).Scan(&raw)
	return decodeScenario(raw, err)
}

func decodeScenario(raw []byte, err error) (*models.ScenarioDocument, error) {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var doc models.ScenarioDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode stored scenario: %w", err)
	}
	return &doc, nil
}

// PutScenario upserts a scenario and links it to the course.
func (s *Postgres) PutScenario(ctx context.Context, courseID string, doc models.ScenarioDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode scenario: %w", err)
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO scenarios (id, kind, document) VALUES ($1, $2, $3::jsonb)
			ON CONFLICT (id) DO UPDATE SET kind = EXCLUDED.kind, document = EXCLUDED.document, updated_at = now()`,
			doc.ID, string(doc.Kind), string(raw)); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO course_scenarios (course_id, scenario_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, courseID, doc.ID)
		return err
	})
}

// GetObjectMapping returns the course's object name to scenario id table.
func (s *Postgres) GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error) {
	rows, err := s.db.Query(ctx, "SELECT object_name, scenario_id FROM object_mappings WHERE course_id = $1", courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	mapping := make(map[string]string)
	for rows.Next() {
		var name, id string
		if err := rows.Scan(&name, &id); err != nil {
			return nil, err
		}
		mapping[name] = id
	}
	return mapping, rows.Err()
}

// PutObjectMapping upserts one object mapping entry.
func (s *Postgres) PutObjectMapping(ctx context.Context, courseID, objectName, scenarioID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO object_mappings (course_id, object_name, scenario_id) VALUES ($1, $2, $3)
		ON CONFLICT (course_id, object_name) DO UPDATE SET scenario_id = EXCLUDED.scenario_id`,
		courseID, objectName, scenarioID)
	return err
}

// SaveAttempt records a graded assessment attempt.
func (s *Postgres) SaveAttempt(ctx context.Context, userID string, result models.AssessmentResult) error {
	correctness, err := json.Marshal(result.PerQuestionCorrectness)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO assessment_attempts (user_id, scenario_id, score_percent, correctness)
		VALUES ($1, $2, $3, $4::jsonb)`, userID, result.ScenarioID, result.ScorePercent, string(correctness))
	return err
}

// UpsertProgress records progress, keeping the highest value and the first
// completion time.
func (s *Postgres) UpsertProgress(ctx context.Context, report models.ProgressReport) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO scenario_progress (user_id, course_id, scenario_id, progress, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, course_id, scenario_id) DO UPDATE SET
			progress = GREATEST(scenario_progress.progress, EXCLUDED.progress),
			completed_at = COALESCE(scenario_progress.completed_at, EXCLUDED.completed_at),
			updated_at = now()`,
		report.UserID, report.CourseID, report.ScenarioID, report.Progress, report.CompletedAt)
	return err
}

// ListProgress returns a learner's progress records in a course.
func (s *Postgres) ListProgress(ctx context.Context, userID, courseID string) ([]*models.ProgressRecord, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id, course_id, scenario_id, progress, completed_at, updated_at
		FROM scenario_progress WHERE user_id = $1 AND course_id = $2
		ORDER BY scenario_id`, userID, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*models.ProgressRecord
	for rows.Next() {
		var r models.ProgressRecord
		if err := rows.Scan(&r.UserID, &r.CourseID, &r.ScenarioID, &r.Progress, &r.CompletedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		records = append(records, &r)
	}
	return records, rows.Err()
}

// GetLearnerByEmail looks up a learner.
func (s *Postgres) GetLearnerByEmail(ctx context.Context, email string) (*models.Learner, error) {
	var l models.Learner
	err := s.db.QueryRow(ctx, "SELECT id::text, email, name, created_at, updated_at FROM learners WHERE email = $1", email).
		Scan(&l.ID, &l.Email, &l.Name, &l.CreatedAt, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLearner inserts a learner, assigning an id when empty.
func (s *Postgres) CreateLearner(ctx context.Context, learner *models.Learner) error {
	if learner.ID == "" {
		learner.ID = uuid.New().String()
	}
	return s.db.QueryRow(ctx, `
		INSERT INTO learners (id, email, name) VALUES ($1::uuid, $2, $3)
		RETURNING created_at, updated_at`, learner.ID, learner.Email, learner.Name).
		Scan(&learner.CreatedAt, &learner.UpdatedAt)
}
