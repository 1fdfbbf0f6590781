package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/sajmeister/aaplat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	createCalls int
	uploadCalls int

	createErr error
	uploadErr error

	uploadedAgentID string
	uploadedFiles   []StagedFile
}

func (f *fakeAPI) CreateAgent(_ context.Context, req types.CreateAgentRequest) (types.Agent, error) {
	f.createCalls++
	if f.createErr != nil {
		return types.Agent{}, f.createErr
	}
	return types.Agent{ID: "agent_1_abc", Name: req.Name}, nil
}

func (f *fakeAPI) UploadFiles(_ context.Context, agentID string, files []StagedFile) (UploadOutcome, error) {
	f.uploadCalls++
	f.uploadedAgentID = agentID
	f.uploadedFiles = files
	if f.uploadErr != nil {
		return UploadOutcome{}, f.uploadErr
	}
	return UploadOutcome{AgentID: agentID, StorageConfigured: true}, nil
}

func validRequest() types.CreateAgentRequest {
	return types.CreateAgentRequest{
		Name:        "Demo",
		Description: "A demo agent",
		Category:    types.CategoryAutomation,
		Runtime:     types.RuntimePython,
	}
}

func TestSubmitHappyPath(t *testing.T) {
	api := &fakeAPI{}
	stager := NewStager(0)
	stager.Add(FileInput{Name: "main.py", Content: []byte("print('hi')")})

	sub := NewSubmitter(api, stager)

	agent, err := sub.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "agent_1_abc", agent.ID)
	assert.Equal(t, StateSucceeded, sub.State())
	assert.Equal(t, 1, api.createCalls)
	assert.Equal(t, 1, api.uploadCalls)
	assert.Equal(t, "agent_1_abc", api.uploadedAgentID)
	require.Len(t, api.uploadedFiles, 1)
	assert.Equal(t, "main.py", api.uploadedFiles[0].Name)

	// Staged files are consumed by a successful submission
	assert.Empty(t, stager.Files())
}

func TestSubmitLocalGateBlocksNetworkCall(t *testing.T) {
	api := &fakeAPI{}
	sub := NewSubmitter(api, NewStager(0))

	req := validRequest()
	req.Description = ""

	_, err := sub.Submit(context.Background(), req)
	require.Error(t, err)

	assert.Equal(t, StateFailed, sub.State())
	assert.Equal(t, "Name and description are required", sub.LastError())
	assert.Zero(t, api.createCalls)
	assert.Zero(t, api.uploadCalls)
}

func TestSubmitSkipsUploadWithoutValidFiles(t *testing.T) {
	api := &fakeAPI{}
	stager := NewStager(0)
	stager.Add(FileInput{Name: "malware.exe", Content: []byte("MZ")})

	sub := NewSubmitter(api, stager)

	_, err := sub.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, StateSucceeded, sub.State())
	assert.Equal(t, 1, api.createCalls)
	assert.Zero(t, api.uploadCalls)
}

func TestSubmitCreateFailure(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("Name is required")}
	sub := NewSubmitter(api, NewStager(0))

	_, err := sub.Submit(context.Background(), validRequest())
	require.Error(t, err)

	assert.Equal(t, StateFailed, sub.State())
	assert.Equal(t, "Name is required", sub.LastError())
}

func TestSubmitUploadFailure(t *testing.T) {
	api := &fakeAPI{uploadErr: errors.New("Failed to upload agent files. Please try again.")}
	stager := NewStager(0)
	stager.Add(FileInput{Name: "main.py", Content: []byte("x")})

	sub := NewSubmitter(api, stager)

	_, err := sub.Submit(context.Background(), validRequest())
	require.Error(t, err)

	assert.Equal(t, StateFailed, sub.State())
	assert.Equal(t, "Failed to upload agent files. Please try again.", sub.LastError())
	// Files stay staged so a retry can resubmit them
	assert.NotEmpty(t, stager.Files())
}

// gatedAPI blocks inside CreateAgent so a test can hold one submission
// in flight while probing the gate from another goroutine
type gatedAPI struct {
	started   chan struct{}
	release   chan struct{}
	startOnce sync.Once
	calls     atomic.Int32
}

func (g *gatedAPI) CreateAgent(_ context.Context, req types.CreateAgentRequest) (types.Agent, error) {
	g.calls.Add(1)
	g.startOnce.Do(func() { close(g.started) })
	<-g.release
	return types.Agent{ID: "agent_1_abc", Name: req.Name}, nil
}

func (g *gatedAPI) UploadFiles(_ context.Context, agentID string, _ []StagedFile) (UploadOutcome, error) {
	return UploadOutcome{AgentID: agentID, StorageConfigured: true}, nil
}

func TestSubmitConcurrentCallsAdmitOnlyOne(t *testing.T) {
	api := &gatedAPI{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	sub := NewSubmitter(api, NewStager(0))

	done := make(chan error, 1)
	go func() {
		_, err := sub.Submit(context.Background(), validRequest())
		done <- err
	}()

	// Wait until the first submission is inside the create call, then
	// race a second one against it
	<-api.started
	_, err := sub.Submit(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrSubmitInFlight)
	assert.Equal(t, StateCreatingRecord, sub.State())

	close(api.release)
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), api.calls.Load())
	assert.Equal(t, StateSucceeded, sub.State())
}

func TestSubmitBlocksWhileInFlight(t *testing.T) {
	api := &fakeAPI{}
	sub := NewSubmitter(api, NewStager(0))

	var nestedErr error
	sub.SetOnState(func(state SubmitState) {
		if state == StateCreatingRecord {
			_, nestedErr = sub.Submit(context.Background(), validRequest())
		}
	})

	_, err := sub.Submit(context.Background(), validRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, nestedErr, ErrSubmitInFlight)
	assert.Equal(t, 1, api.createCalls)
}

func TestSubmitTerminalStatesAreReenterable(t *testing.T) {
	api := &fakeAPI{createErr: errors.New("boom")}
	sub := NewSubmitter(api, NewStager(0))

	_, err := sub.Submit(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, StateFailed, sub.State())

	api.createErr = nil
	_, err = sub.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, sub.State())
	assert.Empty(t, sub.LastError())
}
