package contracts

// Status tags the result of a single publish step.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusWarning Status = "Warning"
	StatusError   Status = "Error"
)

// StepReport describes what happened in one step of a publish.
type StepReport struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Success builds a successful step report.
func Success(message string) *StepReport {
	return &StepReport{Status: StatusSuccess, Message: message}
}

// Warning builds a warning step report.
func Warning(message string) *StepReport {
	return &StepReport{Status: StatusWarning, Message: message}
}

// Failure builds an error step report.
func Failure(message string) *StepReport {
	return &StepReport{Status: StatusError, Message: message}
}

// Requests holds the per-step reports of a publish. Steps that were never
// reached are left nil and omitted from JSON.
type Requests struct {
	CheckTopic  *StepReport `json:"check_topic,omitempty"`
	CreateTopic *StepReport `json:"create_topic,omitempty"`
	WriteValues *StepReport `json:"write_values,omitempty"`
	// CommitCache reports writing delivered keys back to the membership cache.
	// It is only set after a successful delivery from a source that uses the cache.
	CommitCache *StepReport `json:"commit_cache,omitempty"`
}

// Steps returns the reached steps in execution order, keyed by their JSON name.
func (r Requests) Steps() []NamedStep {
	var steps []NamedStep
	for _, s := range []NamedStep{
		{Name: "check_topic", Report: r.CheckTopic},
		{Name: "create_topic", Report: r.CreateTopic},
		{Name: "write_values", Report: r.WriteValues},
		{Name: "commit_cache", Report: r.CommitCache},
	} {
		if s.Report != nil {
			steps = append(steps, s)
		}
	}
	return steps
}

// NamedStep pairs a step report with its name.
type NamedStep struct {
	Name   string
	Report *StepReport
}

// Outcome is the structured result of one publish invocation.
type Outcome struct {
	Succeeded bool     `json:"succeeded"`
	Requests  Requests `json:"requests"`
	// Records holds the records actually transmitted. Empty unless delivery succeeded.
	Records []Record `json:"records"`
	// TopicCreated is true only when the topic was created during this publish.
	TopicCreated bool `json:"topic_created"`
}

// FailedStep returns the first step that reported an error, if any.
func (o Outcome) FailedStep() (NamedStep, bool) {
	for _, s := range o.Requests.Steps() {
		if s.Report.Status == StatusError {
			return s, true
		}
	}
	return NamedStep{}, false
}

// HasError reports whether any step failed with an error (as opposed to a warning).
func (o Outcome) HasError() bool {
	_, failed := o.FailedStep()
	return failed
}
