package client

import (
	"context"
	"errors"
	"sync"

	"github.com/sajmeister/aaplat/internal/types"
)

// SubmitState is the phase of one agent submission
type SubmitState string

const (
	StateIdle           SubmitState = "idle"
	StateCreatingRecord SubmitState = "creating-record"
	StateUploadingFiles SubmitState = "uploading-files"
	StateSucceeded      SubmitState = "succeeded"
	StateFailed         SubmitState = "failed"
)

// ErrSubmitInFlight is returned when Submit is called while an earlier
// submission has not reached a terminal state
var ErrSubmitInFlight = errors.New("submission already in progress")

// AgentAPI is the slice of the platform client the submitter needs
type AgentAPI interface {
	CreateAgent(ctx context.Context, req types.CreateAgentRequest) (types.Agent, error)
	UploadFiles(ctx context.Context, agentID string, files []StagedFile) (UploadOutcome, error)
}

// Submitter runs the two-step agent submission: create the record, then
// upload the staged files in one multipart batch. Either step failing
// moves it to failed; terminal states can be submitted from again.
type Submitter struct {
	api    AgentAPI
	stager *Stager

	mu      sync.Mutex
	state   SubmitState
	lastErr string
	onState func(SubmitState)
}

func NewSubmitter(api AgentAPI, stager *Stager) *Submitter {
	return &Submitter{
		api:    api,
		stager: stager,
		state:  StateIdle,
	}
}

// SetOnState registers a callback fired on every state transition
func (s *Submitter) SetOnState(fn func(SubmitState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onState = fn
}

// State returns the current submission state
func (s *Submitter) State() SubmitState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the failure message of the most recent failed
// submission, empty otherwise
func (s *Submitter) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Submit creates the agent record and uploads the valid staged files.
// Name and description are checked locally before any network call.
// A second Submit while one is in flight returns ErrSubmitInFlight.
func (s *Submitter) Submit(ctx context.Context, req types.CreateAgentRequest) (types.Agent, error) {
	// The gate check and the transition to creating-record happen under
	// one lock; a concurrent Submit must never observe a gap between them
	s.mu.Lock()
	if s.state == StateCreatingRecord || s.state == StateUploadingFiles {
		s.mu.Unlock()
		return types.Agent{}, ErrSubmitInFlight
	}
	s.state = StateCreatingRecord
	s.lastErr = ""
	fn := s.onState
	s.mu.Unlock()

	if fn != nil {
		fn(StateCreatingRecord)
	}

	if req.Name == "" || req.Description == "" {
		err := errors.New("Name and description are required")
		s.setFailed(err.Error())
		return types.Agent{}, err
	}

	agent, err := s.api.CreateAgent(ctx, req)
	if err != nil {
		s.setFailed(err.Error())
		return types.Agent{}, err
	}

	// Invalid and empty staged files are dropped, not submitted
	files := s.stager.ValidFiles()
	if len(files) > 0 {
		s.setState(StateUploadingFiles)

		if _, err := s.api.UploadFiles(ctx, agent.ID, files); err != nil {
			s.setFailed(err.Error())
			return types.Agent{}, err
		}
	}

	s.stager.Clear()
	s.setState(StateSucceeded)

	return agent, nil
}

func (s *Submitter) setState(state SubmitState) {
	s.mu.Lock()
	s.state = state
	if state != StateFailed {
		s.lastErr = ""
	}
	fn := s.onState
	s.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

func (s *Submitter) setFailed(msg string) {
	s.mu.Lock()
	s.state = StateFailed
	s.lastErr = msg
	fn := s.onState
	s.mu.Unlock()

	if fn != nil {
		fn(StateFailed)
	}
}
