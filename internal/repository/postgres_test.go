package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"safety-lms/backend/pkg/models"
)

func TestPostgresRepository(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	store := NewPostgres(pool)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "schema is idempotent")
	require.NoError(t, store.Ping(ctx))

	quiz := models.ScenarioDocument{
		Kind:  models.KindAssessment,
		ID:    "pressure-risk",
		Title: "Pressure risks",
		Questions: []models.Question{{
			ID:   "q1",
			Text: "What do you do before opening the valve?",
			Type: models.QuestionSingle,
			Options: []models.Option{
				{ID: "a", Text: "Bleed the line", IsCorrect: models.Bool(true)},
				{ID: "b", Text: "Open it quickly", IsCorrect: models.Bool(false)},
			},
		}},
	}

	t.Run("Scenario round trip", func(t *testing.T) {
		require.NoError(t, store.PutScenario(ctx, "course-1", quiz))

		got, err := store.GetScenario(ctx, "course-1", "pressure-risk")
		require.NoError(t, err)
		assert.Equal(t, quiz, *got)

		_, err = store.GetScenario(ctx, "course-2", "pressure-risk")
		assert.ErrorIs(t, err, ErrNotFound)

		found, err := store.FindScenario(ctx, "pressure-risk")
		require.NoError(t, err)
		assert.Equal(t, quiz.Title, found.Title)

		quiz.Title = "Pressure risks (v2)"
		require.NoError(t, store.PutScenario(ctx, "course-1", quiz))
		got, err = store.GetScenario(ctx, "course-1", "pressure-risk")
		require.NoError(t, err)
		assert.Equal(t, "Pressure risks (v2)", got.Title)
	})

	t.Run("Object mapping", func(t *testing.T) {
		require.NoError(t, store.PutObjectMapping(ctx, "course-1", "ValveA", "scn-1"))
		require.NoError(t, store.PutObjectMapping(ctx, "course-1", "ValveA", "pressure-risk"))
		require.NoError(t, store.PutObjectMapping(ctx, "course-2", "Panel", "lockout"))

		mapping, err := store.GetObjectMapping(ctx, "course-1")
		require.NoError(t, err)
		assert.Equal(t, map[string]string{"ValveA": "pressure-risk"}, mapping)

		empty, err := store.GetObjectMapping(ctx, "course-unknown")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("Progress keeps best score and first completion", func(t *testing.T) {
		first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
		later := first.Add(24 * time.Hour)

		require.NoError(t, store.UpsertProgress(ctx, models.ProgressReport{
			UserID: "u1", CourseID: "course-1", ScenarioID: "pressure-risk", Progress: 80, CompletedAt: &first,
		}))
		require.NoError(t, store.UpsertProgress(ctx, models.ProgressReport{
			UserID: "u1", CourseID: "course-1", ScenarioID: "pressure-risk", Progress: 40, CompletedAt: &later,
		}))

		records, err := store.ListProgress(ctx, "u1", "course-1")
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, 80, records[0].Progress)
		require.NotNil(t, records[0].CompletedAt)
		assert.True(t, first.Equal(*records[0].CompletedAt))
	})

	t.Run("Attempts", func(t *testing.T) {
		err := store.SaveAttempt(ctx, "u1", models.AssessmentResult{
			ScenarioID:             "pressure-risk",
			PerQuestionCorrectness: map[string]bool{"q1": true},
			ScorePercent:           100,
		})
		assert.NoError(t, err)
	})

	t.Run("Learners", func(t *testing.T) {
		_, err := store.GetLearnerByEmail(ctx, "ana@plant.example")
		assert.ErrorIs(t, err, ErrNotFound)

		learner := &models.Learner{Email: "ana@plant.example", Name: "Ana"}
		require.NoError(t, store.CreateLearner(ctx, learner))
		assert.NotEmpty(t, learner.ID)

		got, err := store.GetLearnerByEmail(ctx, "ana@plant.example")
		require.NoError(t, err)
		assert.Equal(t, learner.ID, got.ID)
		assert.Equal(t, "Ana", got.Name)
	})
}
