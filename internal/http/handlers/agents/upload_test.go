package agents

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sajmeister/aaplat/internal/config"
	"github.com/sajmeister/aaplat/internal/http/middleware"
	"github.com/sajmeister/aaplat/internal/services/uploads"
	"github.com/sajmeister/aaplat/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlacer struct {
	err     error
	agentID string
	userID  string
	files   []uploads.File
}

func (f *fakePlacer) PlaceAgentFiles(_ context.Context, agentID, userID string, files []uploads.File) (types.UploadResult, error) {
	f.agentID = agentID
	f.userID = userID
	f.files = files
	if f.err != nil {
		return types.UploadResult{}, f.err
	}

	var result types.UploadResult
	for _, file := range files {
		result.Entrypoint = append(result.Entrypoint, uploads.ObjectKey(userID, agentID, file.Name))
	}
	return result, nil
}

type fakePublisher struct {
	uploadedAgentID string
	uploadedCount   int
	persisted       bool
	uploadedCalls   int
}

func (f *fakePublisher) PublishAgentCreated(types.Agent) {}

func (f *fakePublisher) PublishFilesUploaded(_, agentID string, fileCount int, persisted bool) {
	f.uploadedCalls++
	f.uploadedAgentID = agentID
	f.uploadedCount = fileCount
	f.persisted = persisted
}

func (f *fakePublisher) PublishAgentReviewed(string, string, string, int) {}

func uploadConfig() *config.Config {
	return &config.Config{
		Uploads: config.Uploads{MaxFiles: 10},
		Storage: config.Storage{PresignedURLTTL: 3600},
	}
}

// multipartRequest builds an authenticated upload request with file
// parts keyed by filename
func multipartRequest(t *testing.T, userID, agentID string, files map[string][]byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if agentID != "" {
		require.NoError(t, writer.WriteField("agentId", agentID))
	}
	for name, content := range files {
		part, err := writer.CreateFormFile(name, name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/agents/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if userID != "" {
		req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
	}
	return req
}

func decodeUploadBody(t *testing.T, rec *httptest.ResponseRecorder) (string, UploadPayload) {
	t.Helper()

	var envelope struct {
		Message string        `json:"message"`
		Data    UploadPayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope.Message, envelope.Data
}

func TestUploadFilesHappyPath(t *testing.T) {
	placer := &fakePlacer{}
	publisher := &fakePublisher{}
	handler := UploadFiles(placer, publisher, uploadConfig())

	req := multipartRequest(t, "user-1", "agent_1_abc", map[string][]byte{
		"main.py": []byte("print('hi')"),
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	message, payload := decodeUploadBody(t, rec)
	assert.Equal(t, "Successfully uploaded 1 files", message)
	assert.Equal(t, "agent_1_abc", payload.AgentID)
	assert.True(t, payload.StorageConfigured)
	assert.Equal(t, []string{"agents/user-1/agent_1_abc/main.py"}, payload.Files.Entrypoint)

	assert.Equal(t, "agent_1_abc", placer.agentID)
	assert.Equal(t, "user-1", placer.userID)
	require.Len(t, placer.files, 1)
	assert.Equal(t, "main.py", placer.files[0].Name)

	assert.Equal(t, 1, publisher.uploadedCalls)
	assert.True(t, publisher.persisted)
}

func TestUploadFilesRequiresAuth(t *testing.T) {
	handler := UploadFiles(&fakePlacer{}, &fakePublisher{}, uploadConfig())

	req := multipartRequest(t, "", "agent_1_abc", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "AUTH_REQUIRED")
}

func TestUploadFilesAllowList(t *testing.T) {
	cfg := uploadConfig()
	cfg.Uploads.AllowedUploaders = []string{"user-2"}
	handler := UploadFiles(&fakePlacer{}, &fakePublisher{}, cfg)

	req := multipartRequest(t, "user-1", "agent_1_abc", map[string][]byte{
		"main.py": []byte("x"),
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "FORBIDDEN")
}

func TestUploadFilesRequiresAgentID(t *testing.T) {
	handler := UploadFiles(&fakePlacer{}, &fakePublisher{}, uploadConfig())

	req := multipartRequest(t, "user-1", "", map[string][]byte{
		"main.py": []byte("x"),
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Agent ID is required")
}

func TestUploadFilesRejectsDisallowedTypeNamingFile(t *testing.T) {
	placer := &fakePlacer{}
	publisher := &fakePublisher{}
	handler := UploadFiles(placer, publisher, uploadConfig())

	req := multipartRequest(t, "user-1", "agent_1_abc", map[string][]byte{
		"malware.exe": []byte("MZ"),
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "malware.exe")
	assert.Contains(t, rec.Body.String(), "File type not allowed")
	assert.Empty(t, placer.files)
	assert.Zero(t, publisher.uploadedCalls)
}

func TestUploadFilesSkipsEmptyParts(t *testing.T) {
	placer := &fakePlacer{}
	handler := UploadFiles(placer, &fakePublisher{}, uploadConfig())

	req := multipartRequest(t, "user-1", "agent_1_abc", map[string][]byte{
		"empty.py": {},
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	message, payload := decodeUploadBody(t, rec)
	assert.Equal(t, "No files to upload", message)
	assert.True(t, payload.Files.Empty())
	assert.Empty(t, placer.files)
}

func TestUploadFilesStorageUnconfigured(t *testing.T) {
	publisher := &fakePublisher{}
	handler := UploadFiles(nil, publisher, uploadConfig())

	req := multipartRequest(t, "user-1", "agent_1_abc", map[string][]byte{
		"main.py": []byte("x"),
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	message, payload := decodeUploadBody(t, rec)
	assert.Contains(t, message, "storage not configured")
	assert.False(t, payload.StorageConfigured)
	assert.True(t, payload.Files.Empty())

	assert.Equal(t, 1, publisher.uploadedCalls)
	assert.False(t, publisher.persisted)
}

func TestUploadFilesPlacementFailureIsSoft(t *testing.T) {
	placer := &fakePlacer{err: errors.New("connection refused")}
	publisher := &fakePublisher{}
	handler := UploadFiles(placer, publisher, uploadConfig())

	req := multipartRequest(t, "user-1", "agent_1_abc", map[string][]byte{
		"main.py": []byte("x"),
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	message, payload := decodeUploadBody(t, rec)
	assert.Equal(t, "Agent created but file upload failed", message)
	assert.True(t, payload.StorageConfigured)
	assert.Equal(t, "connection refused", payload.UploadError)
	assert.False(t, publisher.persisted)
}

func TestUploadFilesTooManyFiles(t *testing.T) {
	cfg := uploadConfig()
	cfg.Uploads.MaxFiles = 1
	handler := UploadFiles(&fakePlacer{}, &fakePublisher{}, cfg)

	req := multipartRequest(t, "user-1", "agent_1_abc", map[string][]byte{
		"main.py":     []byte("x"),
		"config.yaml": []byte("y"),
	})
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too many files")
}

type fakeSigner struct {
	url string
	err error
	key string
	ttl time.Duration
}

func (f *fakeSigner) PresignedGetURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	f.key = key
	f.ttl = ttl
	return f.url, f.err
}

func TestGetFileURL(t *testing.T) {
	signer := &fakeSigner{url: "https://store.example/signed"}
	handler := GetFileURL(signer, uploadConfig())

	req := httptest.NewRequest(http.MethodGet, "/agents/upload?key=agents/u1/a1/main.py", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "agents/u1/a1/main.py", signer.key)
	assert.Equal(t, time.Hour, signer.ttl)
	assert.Contains(t, rec.Body.String(), "https://store.example/signed")
}

func TestGetFileURLRequiresKey(t *testing.T) {
	handler := GetFileURL(&fakeSigner{}, uploadConfig())

	req := httptest.NewRequest(http.MethodGet, "/agents/upload", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "File key is required")
}

func TestGetFileURLStorageUnconfiguredIsHardFailure(t *testing.T) {
	handler := GetFileURL(nil, uploadConfig())

	req := httptest.NewRequest(http.MethodGet, "/agents/upload?key=agents/u1/a1/main.py", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, "user-1"))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "storage not configured")
}
