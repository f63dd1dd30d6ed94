package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeJobClient struct {
	submitFailures int
	submitCalls    int

	states     []JobState
	stateCalls int

	output []byte
}

func (f *fakeJobClient) Submit(ctx context.Context, jsonl []byte, tag string) (string, error) {
	f.submitCalls++
	if f.submitCalls <= f.submitFailures {
		return "", errors.New("transport down")
	}
	return "job-1", nil
}

func (f *fakeJobClient) State(ctx context.Context, jobID string) (JobState, error) {
	if f.stateCalls >= len(f.states) {
		return f.states[len(f.states)-1], nil
	}
	s := f.states[f.stateCalls]
	f.stateCalls++
	return s, nil
}

func (f *fakeJobClient) Output(ctx context.Context, jobID string) ([]byte, error) {
	return f.output, nil
}

func fastOptions() JobRunnerOptions {
	return JobRunnerOptions{
		PollInterval:  time.Millisecond,
		SubmitBackoff: time.Millisecond,
		Sleep:         func(time.Duration) {},
	}
}

func TestJobRunner_PollsUntilCompleted(t *testing.T) {
	t.Parallel()

	client := &fakeJobClient{
		states: []JobState{JobSubmitted, JobInProgress, JobInProgress, JobCompleted},
		output: []byte("results"),
	}

	runner := NewJobRunner(client, fastOptions())
	jobID, out, err := runner.Run(context.Background(), []byte("{}"), "batch_00")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if jobID != "job-1" {
		t.Fatalf("jobID=%q, want job-1", jobID)
	}
	if string(out) != "results" {
		t.Fatalf("out=%q, want results", out)
	}
	if client.stateCalls != 4 {
		t.Fatalf("stateCalls=%d, want 4", client.stateCalls)
	}
}

func TestJobRunner_TerminalFailureNamesState(t *testing.T) {
	t.Parallel()

	for _, state := range []JobState{JobFailed, JobExpired, JobCancelled} {
		client := &fakeJobClient{states: []JobState{JobInProgress, state}}
		runner := NewJobRunner(client, fastOptions())

		_, _, err := runner.Run(context.Background(), []byte("{}"), "batch_00")
		if err == nil {
			t.Fatalf("state %s: expected error", state)
		}
		if !strings.Contains(err.Error(), string(state)) {
			t.Fatalf("state %s: error %q does not name the state", state, err)
		}
	}
}

func TestJobRunner_RetriesSubmitOnTransportFailure(t *testing.T) {
	t.Parallel()

	client := &fakeJobClient{
		submitFailures: 2,
		states:         []JobState{JobCompleted},
	}
	runner := NewJobRunner(client, fastOptions())

	if _, _, err := runner.Run(context.Background(), []byte("{}"), "batch_00"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if client.submitCalls != 3 {
		t.Fatalf("submitCalls=%d, want 3", client.submitCalls)
	}
}

func TestJobRunner_SubmitGivesUpAfterBoundedRetries(t *testing.T) {
	t.Parallel()

	client := &fakeJobClient{submitFailures: 10, states: []JobState{JobCompleted}}
	runner := NewJobRunner(client, fastOptions())

	if _, _, err := runner.Run(context.Background(), []byte("{}"), "batch_00"); err == nil {
		t.Fatalf("expected error after exhausting submit retries")
	}
	// Initial attempt plus DefaultSubmitRetries.
	if client.submitCalls != DefaultSubmitRetries+1 {
		t.Fatalf("submitCalls=%d, want %d", client.submitCalls, DefaultSubmitRetries+1)
	}
}

func TestJobRunner_MaxWaitBoundsPolling(t *testing.T) {
	t.Parallel()

	client := &fakeJobClient{states: []JobState{JobInProgress}}
	opts := fastOptions()
	opts.MaxWait = 3 * time.Millisecond

	runner := NewJobRunner(client, opts)
	_, _, err := runner.Run(context.Background(), []byte("{}"), "batch_00")
	if err == nil {
		t.Fatalf("expected error when MaxWait elapses")
	}
	if !strings.Contains(err.Error(), "still") {
		t.Fatalf("error=%q, want a timeout-style message", err)
	}
}

func TestJobState_Terminal(t *testing.T) {
	t.Parallel()

	for _, s := range []JobState{JobCompleted, JobFailed, JobExpired, JobCancelled} {
		if !s.Terminal() {
			t.Fatalf("%s.Terminal()=false, want true", s)
		}
	}
	for _, s := range []JobState{JobSubmitted, JobInProgress} {
		if s.Terminal() {
			t.Fatalf("%s.Terminal()=true, want false", s)
		}
	}
}
