package uploads

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/sajmeister/aaplat/internal/services/objectstore"
	"github.com/sajmeister/aaplat/internal/types"
)

// ObjectStore is the slice of the storage client this service needs
type ObjectStore interface {
	Put(ctx context.Context, key string, content []byte, declaredType, typeHint string) (objectstore.FilePlacement, error)
}

// Service places validated agent files into object storage and buckets
// the resulting keys into semantic slots.
type Service struct {
	store ObjectStore
}

// File is one validated file ready for placement
type File struct {
	Name         string
	Content      []byte
	DeclaredType string
}

func NewService(store ObjectStore) *Service {
	return &Service{store: store}
}

// ObjectKey derives the deterministic storage key for an agent file.
// Re-uploading the same filename for the same agent overwrites in place.
func ObjectKey(userID, agentID, fileName string) string {
	return fmt.Sprintf("agents/%s/%s/%s", userID, agentID, fileName)
}

// AgentPrefix is the storage prefix holding every file of one agent
func AgentPrefix(userID, agentID string) string {
	return fmt.Sprintf("agents/%s/%s/", userID, agentID)
}

// PlaceAgentFiles uploads each file sequentially and returns the keys
// bucketed by semantic slot. Files are independent; ordering across them
// carries no meaning. The first storage error aborts the batch.
func (s *Service) PlaceAgentFiles(ctx context.Context, agentID, userID string, files []File) (types.UploadResult, error) {
	var result types.UploadResult

	for _, file := range files {
		key := ObjectKey(userID, agentID, file.Name)

		typeHint := mime.TypeByExtension(filepath.Ext(file.Name))
		placement, err := s.store.Put(ctx, key, file.Content, file.DeclaredType, typeHint)
		if err != nil {
			return types.UploadResult{}, fmt.Errorf("failed to upload agent files: %w", err)
		}

		addToSlot(&result, file.Name, placement.Key)
	}

	return result, nil
}

// addToSlot buckets the key into the first slot its filename matches;
// a file never lands in more than one slot. Entrypoint names
// (main/index/app) take precedence over the category markers, and
// files matching no marker stay out of the slot lists entirely.
func addToSlot(result *types.UploadResult, fileName, key string) {
	name := strings.ToLower(fileName)

	switch {
	case strings.Contains(name, "main.") || strings.Contains(name, "index.") || strings.Contains(name, "app."):
		result.Entrypoint = append(result.Entrypoint, key)
	case strings.Contains(name, "dockerfile"):
		result.Dockerfile = append(result.Dockerfile, key)
	case strings.Contains(name, "requirements.") || strings.Contains(name, "package.json") || strings.Contains(name, "cargo.toml"):
		result.Dependency = append(result.Dependency, key)
	case strings.Contains(name, "config.") || strings.Contains(name, ".env"):
		result.Config = append(result.Config, key)
	case strings.Contains(name, "readme") || strings.Contains(name, "doc"):
		result.Documentation = append(result.Documentation, key)
	}
}
