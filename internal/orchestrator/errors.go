package orchestrator

// ValidationError reports a request that failed input validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// PlanningError reports a request the planner could not turn into SQL.
// Explanation carries the model's user-facing reason, such as a refusal
// of a destructive query or a request for more detail.
type PlanningError struct {
	Explanation string
}

func (e *PlanningError) Error() string {
	return "query planning failed: " + e.Explanation
}

// SchedulingError reports a failure to persist a scheduled job.
type SchedulingError struct {
	Err error
}

func (e *SchedulingError) Error() string {
	return "scheduling failed: " + e.Err.Error()
}

func (e *SchedulingError) Unwrap() error {
	return e.Err
}

// IntentError reports a request whose intent could not be classified.
type IntentError struct {
	Text string
}

func (e *IntentError) Error() string {
	return "could not understand the request"
}
