package planner

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"reportbot/internal/llm"
	"reportbot/internal/schema"
)

// Intent categories for a report request.
const (
	IntentRunNow   = "run_now"
	IntentSchedule = "schedule"
	IntentUnknown  = "unknown"
)

// Schedule is the structured output of schedule extraction.
type Schedule struct {
	RunAt      time.Time
	Email      string
	Recurring  bool
	Confidence float64
}

// SchemaSearcher finds schema documents relevant to a query.
type SchemaSearcher interface {
	Search(ctx context.Context, query string, k int) ([]schema.Match, error)
}

// Planner turns natural language requests into intents, SQL plans and
// schedules using an LLM.
type Planner struct {
	completer llm.Completer
	schemas   SchemaSearcher
	location  *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

func New(completer llm.Completer, schemas SchemaSearcher, location *time.Location, logger *zap.Logger) *Planner {
	return &Planner{
		completer: completer,
		schemas:   schemas,
		location:  location,
		logger:    logger,
		now:       time.Now,
	}
}

// ClassifyIntent maps a request onto one of the intent categories. It never
// fails: model errors and unrecognized answers both classify as unknown.
func (p *Planner) ClassifyIntent(ctx context.Context, text string) string {
	prompt := intentPrompt + "\n\nUser request: " + text
	response, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		p.logger.Warn("Intent classification failed", zap.Error(err))
		return IntentUnknown
	}

	answer := strings.ToLower(strings.TrimSpace(response))
	answer = strings.Trim(answer, `"'`)
	switch {
	case strings.Contains(answer, IntentRunNow):
		return IntentRunNow
	case strings.Contains(answer, IntentSchedule):
		return IntentSchedule
	default:
		return IntentUnknown
	}
}

// PlanQuery builds a SQL plan for the request, grounding the model on the
// schema documents most relevant to it. It never fails: retrieval and model
// errors degrade to the sentinel plan so callers always hold a well-formed
// structure.
func (p *Planner) PlanQuery(ctx context.Context, text string) Plan {
	matches, err := p.schemas.Search(ctx, text, 3)
	if err != nil {
		p.logger.Warn("Schema retrieval failed", zap.Error(err))
		return sentinelPlan("Error: Could not retrieve schema context")
	}

	contexts := make([]string, 0, len(matches))
	for _, m := range matches {
		contexts = append(contexts, "Table Schema:\n"+m.Content)
	}
	schemaContext := strings.Join(contexts, "\n\n")

	prompt := queryPrompt(schemaContext) + "\n\nUser Request: " + text
	response, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		p.logger.Warn("Query generation failed", zap.Error(err))
		return sentinelPlan(fallbackExplanation)
	}

	plan := ParsePlan(response)
	p.logger.Debug("Planned query",
		zap.String("query", plan.Query),
		zap.Strings("parameters", plan.Parameters))
	return plan
}

type scheduleResponse struct {
	ScheduleTime string   `json:"schedule_time"`
	Email        *string  `json:"email"`
	Recurring    bool     `json:"recurring"`
	Confidence   *float64 `json:"confidence"`
}

// PlanSchedule extracts a run time from the request. A time that already
// passed is pushed forward a day; when extraction fails entirely the
// schedule falls back to tomorrow 10:00 with low confidence.
func (p *Planner) PlanSchedule(ctx context.Context, text string) Schedule {
	now := p.now().In(p.location)
	prompt := schedulePrompt(now.Format("2006-01-02 15:04:05")) + "\n\nUser request: " + text

	response, err := p.completer.Complete(ctx, prompt)
	if err != nil {
		p.logger.Warn("Schedule extraction failed", zap.Error(err))
		return p.fallbackSchedule(now)
	}

	extracted := ExtractJSONObject(StripCodeFences(response))
	if extracted == "" {
		p.logger.Warn("No JSON object in schedule response")
		return p.fallbackSchedule(now)
	}

	var decoded scheduleResponse
	if err := json.Unmarshal([]byte(extracted), &decoded); err != nil {
		p.logger.Warn("Malformed schedule response", zap.Error(err))
		return p.fallbackSchedule(now)
	}

	runAt, err := parseScheduleTime(decoded.ScheduleTime, p.location)
	if err != nil {
		p.logger.Warn("Unparseable schedule time", zap.String("value", decoded.ScheduleTime))
		return p.fallbackSchedule(now)
	}

	if !runAt.After(now) {
		runAt = runAt.Add(24 * time.Hour)
	}

	s := Schedule{RunAt: runAt, Recurring: decoded.Recurring, Confidence: 0.9}
	if decoded.Email != nil {
		s.Email = strings.TrimSpace(*decoded.Email)
	}
	if decoded.Confidence != nil {
		s.Confidence = *decoded.Confidence
	}
	return s
}

// parseScheduleTime accepts both offset-carrying and naive timestamps. Only
// naive values are localized to the configured zone; an explicit offset is
// kept as the instant it names.
func parseScheduleTime(value string, location *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(location), nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, location)
}

func (p *Planner) fallbackSchedule(now time.Time) Schedule {
	tomorrow := now.Add(24 * time.Hour)
	runAt := time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), 10, 0, 0, 0, p.location)
	return Schedule{RunAt: runAt, Confidence: 0.5}
}
