package agents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/sajmeister/aaplat/internal/agentfiles"
	"github.com/sajmeister/aaplat/internal/config"
	"github.com/sajmeister/aaplat/internal/events"
	"github.com/sajmeister/aaplat/internal/http/middleware"
	"github.com/sajmeister/aaplat/internal/services/uploads"
	"github.com/sajmeister/aaplat/internal/types"
	"github.com/sajmeister/aaplat/internal/utils/response"
)

// maxUploadMemory bounds how much of a multipart body is held in memory
// before spilling to temp files
const maxUploadMemory = 32 << 20

// FilePlacer is the slice of the uploads service this handler needs.
// A nil FilePlacer means object storage is not configured.
type FilePlacer interface {
	PlaceAgentFiles(ctx context.Context, agentID, userID string, files []uploads.File) (types.UploadResult, error)
}

// URLSigner issues short-lived read URLs for stored objects
type URLSigner interface {
	PresignedGetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// UploadPayload is the body of every upload response. Uploads degrade
// softly: validation failures are hard 400s, but storage being down or
// unconfigured still returns 200 with the flags set accordingly.
type UploadPayload struct {
	AgentID           string             `json:"agent_id"`
	Files             types.UploadResult `json:"files"`
	StorageConfigured bool               `json:"storage_configured"`
	UploadError       string             `json:"upload_error,omitempty"`
}

// UploadFiles handles multipart agent file uploads
// @Summary Upload agent files
// @Description Upload agent source files for an existing agent record
// @Tags agents
// @Accept multipart/form-data
// @Produce json
// @Param agentId formData string true "Agent ID"
// @Success 200 {object} agents.UploadPayload "Upload outcome"
// @Failure 400 {object} response.Response "Invalid file or missing agent ID"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 403 {object} response.Response "Not allowed to upload"
// @Failure 500 {object} response.Response "Internal server error"
// @Security BearerAuth
// @Router /agents/upload [post]
func UploadFiles(placer FilePlacer, publisher events.Publisher, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
				errors.New("user not authenticated"), response.CodeAuthRequired))
			return
		}

		// Upload permission is an explicit allow-list of user IDs; an
		// empty list admits every authenticated user
		if len(cfg.Uploads.AllowedUploaders) > 0 && !slices.Contains(cfg.Uploads.AllowedUploaders, userID) {
			response.WriteJSON(w, http.StatusForbidden, response.CodedError(
				errors.New("you are not authorized to upload agent files"), response.CodeForbidden))
			return
		}

		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("invalid multipart form")))
			return
		}

		agentID := r.FormValue("agentId")
		if agentID == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("Agent ID is required")))
			return
		}

		files, err := collectFiles(r)
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		if len(files) > cfg.Uploads.MaxFiles {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(
				fmt.Errorf("too many files: %d exceeds the limit of %d", len(files), cfg.Uploads.MaxFiles)))
			return
		}

		payload := UploadPayload{
			AgentID:           agentID,
			StorageConfigured: placer != nil,
		}

		// An upload with no valid files is still a success; the record
		// simply has nothing placed yet
		if len(files) == 0 {
			response.WriteJSON(w, http.StatusOK, response.RequestOK("No files to upload", payload))
			return
		}

		if placer == nil {
			slog.Warn("Agent files validated but not uploaded: storage not configured",
				slog.String("agent_id", agentID), slog.Int("file_count", len(files)))
			publisher.PublishFilesUploaded(userID, agentID, len(files), false)
			response.WriteJSON(w, http.StatusOK, response.RequestOK(
				fmt.Sprintf("Files validated but not uploaded (%d files) - storage not configured", len(files)), payload))
			return
		}

		result, err := placer.PlaceAgentFiles(r.Context(), agentID, userID, files)
		if err != nil {
			slog.Error("Agent file placement failed",
				slog.String("agent_id", agentID), slog.String("error", err.Error()))
			payload.UploadError = err.Error()
			publisher.PublishFilesUploaded(userID, agentID, len(files), false)
			response.WriteJSON(w, http.StatusOK, response.RequestOK(
				"Agent created but file upload failed", payload))
			return
		}

		slog.Info("Agent files uploaded",
			slog.String("agent_id", agentID), slog.String("user_id", userID), slog.Int("file_count", len(files)))

		payload.Files = result
		publisher.PublishFilesUploaded(userID, agentID, len(files), true)
		response.WriteJSON(w, http.StatusOK, response.RequestOK(
			fmt.Sprintf("Successfully uploaded %d files", len(files)), payload))
	}
}

// collectFiles walks every file part of the form, skips empty ones and
// re-validates each against the upload rules. The first invalid file
// fails the whole batch.
func collectFiles(r *http.Request) ([]uploads.File, error) {
	var files []uploads.File

	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			if header.Size == 0 {
				continue
			}

			if err := agentfiles.Validate(header.Filename, header.Size); err != nil {
				return nil, fmt.Errorf("Invalid file %s: %s", header.Filename, err.Error())
			}

			part, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("failed to read file %s", header.Filename)
			}

			content, err := io.ReadAll(part)
			part.Close()
			if err != nil {
				return nil, fmt.Errorf("failed to read file %s", header.Filename)
			}

			files = append(files, uploads.File{
				Name:         header.Filename,
				Content:      content,
				DeclaredType: header.Header.Get("Content-Type"),
			})
		}
	}

	return files, nil
}

// GetFileURL returns a short-lived read URL for a stored agent file
// @Summary Get a signed file URL
// @Description Get a presigned download URL for an uploaded agent file
// @Tags agents
// @Produce json
// @Param key query string true "Object storage key"
// @Success 200 {object} map[string]any "Signed URL"
// @Failure 400 {object} response.Response "Missing key"
// @Failure 401 {object} response.Response "Unauthorized"
// @Failure 500 {object} response.Response "Storage not configured or signing failed"
// @Security BearerAuth
// @Router /agents/upload [get]
func GetFileURL(signer URLSigner, cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := middleware.GetUserIDFromContext(r.Context()); !ok {
			response.WriteJSON(w, http.StatusUnauthorized, response.CodedError(
				errors.New("user not authenticated"), response.CodeAuthRequired))
			return
		}

		key := r.URL.Query().Get("key")
		if key == "" {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(errors.New("File key is required")))
			return
		}

		// Reads are hard failures: a signed URL either exists or the
		// request errors, there is no degraded mode here
		if signer == nil {
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("storage not configured")))
			return
		}

		ttl := time.Duration(cfg.Storage.PresignedURLTTL) * time.Second
		url, err := signer.PresignedGetURL(r.Context(), key, ttl)
		if err != nil {
			slog.Error("Failed to sign file URL", slog.String("key", key), slog.String("error", err.Error()))
			response.WriteJSON(w, http.StatusInternalServerError, response.GeneralError(errors.New("failed to generate file URL")))
			return
		}

		response.WriteJSON(w, http.StatusOK, response.RequestOK("File URL generated", map[string]any{
			"url":        url,
			"expires_in": cfg.Storage.PresignedURLTTL,
		}))
	}
}
