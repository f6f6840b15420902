package main

import (
	"context"
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	"safety-lms/backend/pkg/models"
)

// Catalog is the YAML seed file layout.
type Catalog struct {
	Courses []Course `yaml:"courses"`
}

// Course lists the scenarios of a course and the scene objects that open
// them.
type Course struct {
	ID        string                    `yaml:"id"`
	Objects   map[string]string         `yaml:"objects"`
	Scenarios []models.ScenarioDocument `yaml:"scenarios"`
}

// CatalogWriter is the subset of the repository the seeder writes to.
type CatalogWriter interface {
	PutScenario(ctx context.Context, courseID string, doc models.ScenarioDocument) error
	PutObjectMapping(ctx context.Context, courseID, objectName, scenarioID string) error
}

// LoadCatalog decodes and validates a seed file. Every scenario must be a
// valid definition and every object must point at a scenario of its course.
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var cat Catalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cat); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	seen := make(map[string]bool)
	for _, course := range cat.Courses {
		if course.ID == "" {
			return nil, fmt.Errorf("course id is required")
		}
		if seen[course.ID] {
			return nil, fmt.Errorf("course %s is listed twice", course.ID)
		}
		seen[course.ID] = true

		ids := make(map[string]bool, len(course.Scenarios))
		for _, doc := range course.Scenarios {
			def, err := doc.Definition()
			if err != nil {
				return nil, fmt.Errorf("course %s: scenario %s: %w", course.ID, doc.ID, err)
			}
			if err := models.Validate(def); err != nil {
				return nil, fmt.Errorf("course %s: scenario %s: %w", course.ID, doc.ID, err)
			}
			ids[doc.ID] = true
		}
		for object, scenarioID := range course.Objects {
			if !ids[scenarioID] {
				return nil, fmt.Errorf("course %s: object %s maps to unknown scenario %s", course.ID, object, scenarioID)
			}
		}
	}
	return &cat, nil
}

// Apply writes the catalog. Writes are upserts, so seeding twice is safe.
func (c *Catalog) Apply(ctx context.Context, store CatalogWriter, logger Logger) error {
	for _, course := range c.Courses {
		for _, doc := range course.Scenarios {
			if err := store.PutScenario(ctx, course.ID, doc); err != nil {
				return fmt.Errorf("failed to store scenario %s: %w", doc.ID, err)
			}
			logger.Info("Seeded scenario", "course_id", course.ID, "scenario_id", doc.ID, "kind", doc.Kind)
		}

		objects := make([]string, 0, len(course.Objects))
		for object := range course.Objects {
			objects = append(objects, object)
		}
		sort.Strings(objects)
		for _, object := range objects {
			if err := store.PutObjectMapping(ctx, course.ID, object, course.Objects[object]); err != nil {
				return fmt.Errorf("failed to store mapping %s: %w", object, err)
			}
		}
		logger.Info("Seeded object mapping", "course_id", course.ID, "objects", len(objects))
	}
	return nil
}
