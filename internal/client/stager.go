package client

import (
	"github.com/google/uuid"
	"github.com/sajmeister/aaplat/internal/agentfiles"
)

// DefaultMaxFiles caps how many files a single submission may stage
const DefaultMaxFiles = 10

// FileInput is one candidate file handed to the stager
type FileInput struct {
	Name        string
	Content     []byte
	ContentType string
}

// StagedFile is a candidate file held by the stager. Invalid files stay
// in the list with Err set so a caller can show what was rejected; only
// valid files are ever submitted.
type StagedFile struct {
	LocalID     string
	Name        string
	Size        int64
	Content     []byte
	ContentType string
	Category    agentfiles.Category
	Err         error
}

// Valid reports whether the file can be part of a submission
func (f StagedFile) Valid() bool {
	return f.Err == nil && len(f.Content) > 0
}

// Stager accumulates candidate files for one agent submission. It does
// no network or disk I/O; it only classifies, validates and bounds the
// list. Not safe for concurrent use.
type Stager struct {
	maxFiles int
	files    []StagedFile
	onChange func([]StagedFile)
}

func NewStager(maxFiles int) *Stager {
	if maxFiles <= 0 {
		maxFiles = DefaultMaxFiles
	}
	return &Stager{maxFiles: maxFiles}
}

// SetOnChange registers a callback fired with the full list after every
// append or removal
func (s *Stager) SetOnChange(fn func([]StagedFile)) {
	s.onChange = fn
}

// Add stages a batch of candidate files. Nameless entries are skipped
// silently; everything else is classified and validated and gets a fresh
// local ID. When the list overflows the cap the oldest entries are
// dropped first.
func (s *Stager) Add(batch ...FileInput) {
	for _, input := range batch {
		if input.Name == "" {
			continue
		}

		size := int64(len(input.Content))
		s.files = append(s.files, StagedFile{
			LocalID:     uuid.NewString(),
			Name:        input.Name,
			Size:        size,
			Content:     input.Content,
			ContentType: input.ContentType,
			Category:    agentfiles.Classify(input.Name),
			Err:         agentfiles.Validate(input.Name, size),
		})
	}

	if len(s.files) > s.maxFiles {
		s.files = s.files[len(s.files)-s.maxFiles:]
	}

	s.notify()
}

// Remove drops the file with the given local ID and reports whether it
// was present
func (s *Stager) Remove(localID string) bool {
	for i, file := range s.files {
		if file.LocalID == localID {
			s.files = append(s.files[:i], s.files[i+1:]...)
			s.notify()
			return true
		}
	}
	return false
}

// Clear empties the stager
func (s *Stager) Clear() {
	s.files = nil
	s.notify()
}

// Files returns a copy of the staged list in insertion order
func (s *Stager) Files() []StagedFile {
	out := make([]StagedFile, len(s.files))
	copy(out, s.files)
	return out
}

// ValidFiles returns only the files eligible for submission
func (s *Stager) ValidFiles() []StagedFile {
	var out []StagedFile
	for _, file := range s.files {
		if file.Valid() {
			out = append(out, file)
		}
	}
	return out
}

func (s *Stager) notify() {
	if s.onChange != nil {
		s.onChange(s.Files())
	}
}
