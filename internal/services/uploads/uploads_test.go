package uploads

import (
	"context"
	"errors"
	"testing"

	"github.com/sajmeister/aaplat/internal/services/objectstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	puts   map[string][]byte
	failOn string
}

func newFakeStore() *fakeStore {
	return &fakeStore{puts: make(map[string][]byte)}
}

func (f *fakeStore) Put(_ context.Context, key string, content []byte, declaredType, typeHint string) (objectstore.FilePlacement, error) {
	if f.failOn != "" && key == f.failOn {
		return objectstore.FilePlacement{}, errors.New("storage unavailable")
	}

	f.puts[key] = content

	contentType := declaredType
	if contentType == "" {
		contentType = typeHint
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return objectstore.FilePlacement{
		Key:         key,
		Size:        int64(len(content)),
		ContentType: contentType,
	}, nil
}

func TestObjectKey(t *testing.T) {
	key := ObjectKey("user-1", "agent_123_abc", "main.py")
	assert.Equal(t, "agents/user-1/agent_123_abc/main.py", key)
}

func TestPlaceAgentFiles_SlotBucketing(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	files := []File{
		{Name: "main.py", Content: []byte("print('hi')")},
		{Name: "Dockerfile", Content: []byte("FROM python:3.11")},
		{Name: "requirements.txt", Content: []byte("requests==2.31.0")},
		{Name: "config.yaml", Content: []byte("debug: false")},
		{Name: "README.md", Content: []byte("# Demo")},
	}

	result, err := svc.PlaceAgentFiles(context.Background(), "agent_1_x", "user-1", files)
	require.NoError(t, err)

	assert.Equal(t, []string{"agents/user-1/agent_1_x/main.py"}, result.Entrypoint)
	assert.Equal(t, []string{"agents/user-1/agent_1_x/Dockerfile"}, result.Dockerfile)
	assert.Equal(t, []string{"agents/user-1/agent_1_x/requirements.txt"}, result.Dependency)
	assert.Equal(t, []string{"agents/user-1/agent_1_x/config.yaml"}, result.Config)
	assert.Equal(t, []string{"agents/user-1/agent_1_x/README.md"}, result.Documentation)
	assert.Len(t, store.puts, 5)
}

func TestPlaceAgentFiles_MultipleFilesPerSlot(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	// Two config files must both survive, not shadow each other
	files := []File{
		{Name: "config.yaml", Content: []byte("a: 1")},
		{Name: "config.json", Content: []byte(`{"a":1}`)},
	}

	result, err := svc.PlaceAgentFiles(context.Background(), "agent_2_y", "user-1", files)
	require.NoError(t, err)
	assert.Len(t, result.Config, 2)
}

func TestPlaceAgentFiles_FirstMatchingSlotWins(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	// Matches both the entrypoint and config markers; only the
	// higher-precedence entrypoint slot gets it
	files := []File{{Name: "main.config.py", Content: []byte("x = 1")}}

	result, err := svc.PlaceAgentFiles(context.Background(), "agent_6_u", "user-1", files)
	require.NoError(t, err)

	assert.Equal(t, []string{"agents/user-1/agent_6_u/main.config.py"}, result.Entrypoint)
	assert.Empty(t, result.Config)
}

func TestPlaceAgentFiles_PlainSourceGetsNoSlot(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	files := []File{{Name: "worker.py", Content: []byte("pass")}}

	result, err := svc.PlaceAgentFiles(context.Background(), "agent_3_z", "user-1", files)
	require.NoError(t, err)

	// Uploaded, but no conventional entrypoint name means no slot entry
	assert.Contains(t, store.puts, "agents/user-1/agent_3_z/worker.py")
	assert.True(t, result.Empty())
}

func TestPlaceAgentFiles_StorageFailurePropagates(t *testing.T) {
	store := newFakeStore()
	store.failOn = "agents/user-1/agent_4_w/main.py"
	svc := NewService(store)

	files := []File{{Name: "main.py", Content: []byte("x = 1")}}

	_, err := svc.PlaceAgentFiles(context.Background(), "agent_4_w", "user-1", files)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload agent files")
}

func TestPlaceAgentFiles_NoFiles(t *testing.T) {
	svc := NewService(newFakeStore())

	result, err := svc.PlaceAgentFiles(context.Background(), "agent_5_v", "user-1", nil)
	require.NoError(t, err)
	assert.True(t, result.Empty())
}
