// Package resolver maps normalized scene objects to scenario ids and fetches
// the scenario content.
package resolver

import (
	"context"
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"safety-lms/backend/pkg/models"
)

// Logger defines the logging interface compatible with the application logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// ContentSource is the part of the content service the resolver needs.
type ContentSource interface {
	GetScenario(ctx context.Context, courseID, scenarioID string) (models.Definition, error)
	GetObjectMapping(ctx context.Context, courseID string) (map[string]string, error)
}

// MappingTable maps scene object names to scenario ids for one course.
type MappingTable map[string]string

// lookupFold finds a key equal to name under Unicode case folding. When
// several keys fold to the same value the lexically smallest wins, so the
// result does not depend on map iteration order.
func (t MappingTable) lookupFold(name string) (string, bool) {
	var keys []string
	for k := range t {
		if strings.EqualFold(k, name) {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return "", false
	}
	sort.Strings(keys)
	return t[keys[0]], true
}

// Conventional scenario ids for scenes authored without a mapping table.
const ControllerGuideID = "controller-guide"

// actorScenarios enumerates the scenario bound to each numbered actor.
var actorScenarios = map[int]string{
	1: "pressure-risk",
	2: "chemical-exposure",
	3: "working-at-height",
	4: "electrical-lockout",
	5: "confined-space",
}

var (
	actorPattern      = regexp.MustCompile(`(?i)^(?:worker|actor|character|npc|operator)[ _\-]?0*(\d+)$`)
	controllerPattern = regexp.MustCompile(`(?i)controller|cylinder`)
)

// ActorScenarioID returns the enumerated scenario for actor index n.
func ActorScenarioID(n int) (string, bool) {
	id, ok := actorScenarios[n]
	return id, ok
}

// Resolve applies the fallback chain: explicit hint, exact mapping, case
// insensitive mapping, then naming conventions. ok is false when nothing
// matches; callers must not open a workflow in that case.
func Resolve(objectName, scenarioIDHint string, table MappingTable, courseID string) (models.ScenarioRef, bool) {
	ref := func(id string) (models.ScenarioRef, bool) {
		return models.ScenarioRef{ScenarioID: id, CourseID: courseID}, true
	}

	if hint := strings.TrimSpace(scenarioIDHint); hint != "" {
		return ref(hint)
	}
	name := strings.TrimSpace(objectName)
	if name == "" {
		return models.ScenarioRef{}, false
	}
	if id, ok := table[name]; ok && id != "" {
		return ref(id)
	}
	if id, ok := table.lookupFold(name); ok && id != "" {
		return ref(id)
	}
	if id, ok := inferByConvention(name); ok {
		return ref(id)
	}
	return models.ScenarioRef{}, false
}

func inferByConvention(name string) (string, bool) {
	if m := actorPattern.FindStringSubmatch(name); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			if id, ok := ActorScenarioID(n); ok {
				return id, true
			}
		}
		return "", false
	}
	if controllerPattern.MatchString(name) {
		return ControllerGuideID, true
	}
	return "", false
}

// Resolver resolves scene objects against a course's mapping table and
// loads scenario definitions from the content service.
type Resolver struct {
	content ContentSource
	logger  Logger

	// sequences are trigger lists from configuration, keyed by procedure
	// id. They replace the sequence carried by fetched content.
	sequences map[string][]string

	mu       sync.Mutex
	mappings map[string]MappingTable
}

// Option customizes Resolver construction.
type Option func(*Resolver)

// WithTriggerSequences applies configured trigger sequences to guided
// procedures as they are loaded, before they are validated.
func WithTriggerSequences(sequences map[string][]string) Option {
	return func(r *Resolver) {
		for id, triggers := range sequences {
			r.sequences[id] = slices.Clone(triggers)
		}
	}
}

// New creates a Resolver.
func New(content ContentSource, logger Logger, opts ...Option) *Resolver {
	r := &Resolver{
		content:   content,
		logger:    logger,
		sequences: make(map[string][]string),
		mappings:  make(map[string]MappingTable),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mapping returns the cached mapping table for a course, fetching it on first
// use. A failed fetch yields an empty table and is retried on the next call;
// an empty table leaves resolution to the naming conventions.
func (r *Resolver) Mapping(ctx context.Context, courseID string) MappingTable {
	r.mu.Lock()
	table, ok := r.mappings[courseID]
	r.mu.Unlock()
	if ok {
		return table
	}

	raw, err := r.content.GetObjectMapping(ctx, courseID)
	if err != nil {
		r.logger.Warn("object mapping unavailable, using naming conventions", "course_id", courseID, "error", err)
		return MappingTable{}
	}
	table = MappingTable(raw)
	if table == nil {
		table = MappingTable{}
	}

	r.mu.Lock()
	if cached, ok := r.mappings[courseID]; ok {
		table = cached
	} else {
		r.mappings[courseID] = table
	}
	r.mu.Unlock()
	return table
}

// ResolveObject resolves against the course's cached mapping table.
func (r *Resolver) ResolveObject(ctx context.Context, courseID, objectName, scenarioIDHint string) (models.ScenarioRef, bool) {
	var table MappingTable
	if strings.TrimSpace(scenarioIDHint) == "" {
		table = r.Mapping(ctx, courseID)
	}
	ref, ok := Resolve(objectName, scenarioIDHint, table, courseID)
	if !ok {
		r.logger.Debug("scene object did not resolve to a scenario", "course_id", courseID, "object", objectName)
	}
	return ref, ok
}

// LoadDefinition fetches the scenario content. It never fails: fetch errors
// and structurally invalid content are replaced by a placeholder panel so the
// workflow can always start. degraded reports whether that happened.
func (r *Resolver) LoadDefinition(ctx context.Context, ref models.ScenarioRef) (def models.Definition, degraded bool) {
	def, err := r.content.GetScenario(ctx, ref.CourseID, ref.ScenarioID)
	if err == nil {
		def = r.withSequence(def)
		err = models.Validate(def)
	}
	if err != nil {
		r.logger.Warn("scenario content unavailable, showing placeholder",
			"course_id", ref.CourseID, "scenario_id", ref.ScenarioID, "error", err)
		return models.PlaceholderPanel(ref), true
	}
	return def, false
}

// withSequence returns a copy of a guided procedure carrying its configured
// trigger sequence. Other definitions are returned as they are.
func (r *Resolver) withSequence(def models.Definition) models.Definition {
	g, ok := def.(*models.GuidedProcedure)
	if !ok || g == nil {
		return def
	}
	seq, ok := r.sequences[g.ID]
	if !ok {
		return def
	}
	cp := *g
	cp.TriggerSequence = slices.Clone(seq)
	return &cp
}
