// Package pipeline sequences the deployment steps. The order is fixed and
// strictly linear; the first failing step aborts the run. Every run writes a
// record to the state dir after each step, so an interrupted run can be
// resumed with --from and inspected afterwards.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/avezina/shiplift/internal/logging"
)

// Step statuses recorded per run.
const (
	StatusOK      = "ok"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Run statuses.
const (
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// Step is one unit of the deployment sequence. Run mutates the shared run
// state, typically by filling in artifacts later steps need.
type Step struct {
	Name string
	Run  func(ctx context.Context, run *Run) error
}

// Artifacts are the outputs steps hand to each other and to the ledger.
type Artifacts struct {
	Revision    string `json:"revision,omitempty"`
	LocalTag    string `json:"local_tag,omitempty"`
	ImageRef    string `json:"image_ref,omitempty"`
	ImageDigest string `json:"image_digest,omitempty"`
	TaskDefARN  string `json:"task_def_arn,omitempty"`
	URL         string `json:"url,omitempty"`
}

// StepRecord is the persisted outcome of one step.
type StepRecord struct {
	Name       string    `json:"name"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Error      string    `json:"error,omitempty"`
}

// Run is the persisted record of one pipeline execution.
type Run struct {
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt *time.Time   `json:"finished_at,omitempty"`
	Status     string       `json:"status"`
	FailedStep string       `json:"failed_step,omitempty"`
	Error      string       `json:"error,omitempty"`
	Steps      []StepRecord `json:"steps"`
	Artifacts  Artifacts    `json:"artifacts"`
}

type Runner struct {
	steps []Step
	store *StateStore
	log   logging.Logger
}

func NewRunner(steps []Step, store *StateStore, log logging.Logger) *Runner {
	return &Runner{steps: steps, store: store, log: log.WithName("pipeline")}
}

// StepNames lists the sequence in order, for help text and --from validation.
func (r *Runner) StepNames() []string {
	names := make([]string, len(r.steps))
	for i, s := range r.steps {
		names[i] = s.Name
	}
	return names
}

// Execute runs the sequence. A non-empty from resumes at the named step:
// earlier steps are recorded as skipped and the previous run's artifacts are
// carried over so later steps can build on them.
func (r *Runner) Execute(ctx context.Context, from string) (*Run, error) {
	start := r.stepIndex(from)
	if start < 0 {
		return nil, fmt.Errorf("unknown step %q, valid steps: %v", from, r.StepNames())
	}

	run := &Run{StartedAt: time.Now(), Status: RunRunning}
	if start > 0 {
		if previous, err := r.store.LoadLastRun(); err != nil {
			return nil, fmt.Errorf("load previous run for resume: %w", err)
		} else if previous != nil {
			run.Artifacts = previous.Artifacts
		}
	}

	for i, step := range r.steps {
		if i < start {
			run.Steps = append(run.Steps, StepRecord{Name: step.Name, Status: StatusSkipped, StartedAt: time.Now()})
			continue
		}

		record := StepRecord{Name: step.Name, Status: StatusOK, StartedAt: time.Now()}
		r.log.Info("step starting", "step", step.Name)

		err := step.Run(ctx, run)
		record.DurationMS = time.Since(record.StartedAt).Milliseconds()
		if err != nil {
			record.Status = StatusFailed
			record.Error = err.Error()
			run.Steps = append(run.Steps, record)
			r.finish(run, RunFailed, step.Name, err)
			return run, fmt.Errorf("step %s: %w", step.Name, err)
		}

		run.Steps = append(run.Steps, record)
		r.log.Info("step finished", "step", step.Name, "duration_ms", record.DurationMS)
		if err := r.store.Save(run); err != nil {
			return run, fmt.Errorf("persist run state: %w", err)
		}
	}

	r.finish(run, RunSucceeded, "", nil)
	return run, nil
}

func (r *Runner) finish(run *Run, status, failedStep string, cause error) {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = status
	run.FailedStep = failedStep
	if cause != nil {
		run.Error = cause.Error()
		r.log.Error(cause, "pipeline failed", "step", failedStep)
	}
	if err := r.store.Save(run); err != nil {
		r.log.Error(err, "persist run state")
	}
}

// ExecuteOne runs a single named step on top of the previous run's
// artifacts. The other steps are recorded as skipped.
func (r *Runner) ExecuteOne(ctx context.Context, name string) (*Run, error) {
	idx := r.stepIndex(name)
	if idx < 0 || name == "" {
		return nil, fmt.Errorf("unknown step %q, valid steps: %v", name, r.StepNames())
	}

	run := &Run{StartedAt: time.Now(), Status: RunRunning}
	if previous, err := r.store.LoadLastRun(); err != nil {
		return nil, fmt.Errorf("load previous run: %w", err)
	} else if previous != nil {
		run.Artifacts = previous.Artifacts
	}

	for i, step := range r.steps {
		if i != idx {
			run.Steps = append(run.Steps, StepRecord{Name: step.Name, Status: StatusSkipped, StartedAt: time.Now()})
			continue
		}

		record := StepRecord{Name: step.Name, Status: StatusOK, StartedAt: time.Now()}
		r.log.Info("step starting", "step", step.Name)
		err := step.Run(ctx, run)
		record.DurationMS = time.Since(record.StartedAt).Milliseconds()
		if err != nil {
			record.Status = StatusFailed
			record.Error = err.Error()
			run.Steps = append(run.Steps, record)
			r.finish(run, RunFailed, step.Name, err)
			return run, fmt.Errorf("step %s: %w", step.Name, err)
		}
		run.Steps = append(run.Steps, record)
		r.log.Info("step finished", "step", step.Name, "duration_ms", record.DurationMS)
	}

	r.finish(run, RunSucceeded, "", nil)
	return run, nil
}

func (r *Runner) stepIndex(from string) int {
	if from == "" {
		return 0
	}
	for i, s := range r.steps {
		if s.Name == from {
			return i
		}
	}
	return -1
}
