package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// JobState is the lifecycle state of a long-running segmentation job.
type JobState string

const (
	JobSubmitted  JobState = "submitted"
	JobInProgress JobState = "in_progress"
	JobCompleted  JobState = "completed"
	JobFailed     JobState = "failed"
	JobExpired    JobState = "expired"
	JobCancelled  JobState = "cancelled"
)

// Terminal reports whether no further polling can change the state.
func (s JobState) Terminal() bool {
	switch s {
	case JobCompleted, JobFailed, JobExpired, JobCancelled:
		return true
	}
	return false
}

// JobClient is the narrow surface of the external batch-job service. Submit
// errors are transport-level; job-level failure shows up as a terminal state.
type JobClient interface {
	Submit(ctx context.Context, jsonl []byte, tag string) (jobID string, err error)
	State(ctx context.Context, jobID string) (JobState, error)
	Output(ctx context.Context, jobID string) ([]byte, error)
}

// Defaults for the submit/poll/fetch round trip.
const (
	DefaultPollInterval  = 30 * time.Second
	DefaultSubmitRetries = 3
	DefaultSubmitBackoff = 5 * time.Minute
)

// JobRunnerOptions configures a JobRunner.
type JobRunnerOptions struct {
	PollInterval time.Duration

	// MaxWait bounds the total time spent polling one job. Zero polls until a
	// terminal state.
	MaxWait time.Duration

	// SubmitRetries and SubmitBackoff govern re-submission after transport-level
	// failure. Job-level failure (a terminal failure state) is never retried.
	SubmitRetries int
	SubmitBackoff time.Duration

	// Sleep is the wait between polls, injectable so tests never block.
	Sleep func(time.Duration)
}

// JobRunner drives a segmentation job through submit, poll and fetch.
type JobRunner struct {
	client JobClient
	opts   JobRunnerOptions
}

// NewJobRunner wires a runner around client, filling in default options.
func NewJobRunner(client JobClient, opts JobRunnerOptions) *JobRunner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.SubmitRetries <= 0 {
		opts.SubmitRetries = DefaultSubmitRetries
	}
	if opts.SubmitBackoff <= 0 {
		opts.SubmitBackoff = DefaultSubmitBackoff
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	return &JobRunner{client: client, opts: opts}
}

// Run submits the JSONL payload, polls on a fixed interval until the job reaches
// a terminal state, and fetches the output on completion. A terminal failure
// state surfaces as an error naming the state.
func (r *JobRunner) Run(ctx context.Context, jsonl []byte, tag string) (string, []byte, error) {
	if r.client == nil {
		return "", nil, errors.New("JobRunner: client is nil")
	}

	jobID, err := r.submit(ctx, jsonl, tag)
	if err != nil {
		return "", nil, err
	}

	if err := r.wait(ctx, jobID); err != nil {
		return jobID, nil, err
	}

	out, err := r.client.Output(ctx, jobID)
	if err != nil {
		return jobID, nil, fmt.Errorf("JobRunner: fetch output of job %s: %w", jobID, err)
	}
	return jobID, out, nil
}

func (r *JobRunner) submit(ctx context.Context, jsonl []byte, tag string) (string, error) {
	var jobID string
	backoff := retry.WithMaxRetries(uint64(r.opts.SubmitRetries), retry.NewConstant(r.opts.SubmitBackoff))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		id, err := r.client.Submit(ctx, jsonl, tag)
		if err != nil {
			return retry.RetryableError(err)
		}
		jobID = id
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("JobRunner: submit %s: %w", tag, err)
	}
	return jobID, nil
}

func (r *JobRunner) wait(ctx context.Context, jobID string) error {
	var waited time.Duration
	for {
		state, err := r.client.State(ctx, jobID)
		if err != nil {
			return fmt.Errorf("JobRunner: poll job %s: %w", jobID, err)
		}

		switch {
		case state == JobCompleted:
			return nil
		case state.Terminal():
			return fmt.Errorf("JobRunner: job %s ended in state %q", jobID, state)
		}

		if r.opts.MaxWait > 0 && waited >= r.opts.MaxWait {
			return fmt.Errorf("JobRunner: job %s still %q after %s", jobID, state, waited)
		}

		r.opts.Sleep(r.opts.PollInterval)
		waited += r.opts.PollInterval

		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
