package client

import (
	"fmt"
	"testing"

	"github.com/sajmeister/aaplat/internal/agentfiles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStagerAddClassifiesAndValidates(t *testing.T) {
	s := NewStager(0)

	s.Add(
		FileInput{Name: "main.py", Content: []byte("print('hi')")},
		FileInput{Name: "Dockerfile", Content: []byte("FROM python:3.12")},
		FileInput{Name: "README.md", Content: []byte("# demo")},
	)

	files := s.Files()
	require.Len(t, files, 3)

	assert.Equal(t, agentfiles.CategorySource, files[0].Category)
	assert.Equal(t, agentfiles.CategoryDocker, files[1].Category)
	assert.Equal(t, agentfiles.CategoryDocumentation, files[2].Category)

	for _, f := range files {
		assert.NoError(t, f.Err)
		assert.True(t, f.Valid())
		assert.NotEmpty(t, f.LocalID)
	}
	assert.NotEqual(t, files[0].LocalID, files[1].LocalID)
}

func TestStagerSkipsNamelessEntries(t *testing.T) {
	s := NewStager(0)

	s.Add(
		FileInput{Name: "", Content: []byte("orphan")},
		FileInput{Name: "main.py", Content: []byte("x")},
	)

	require.Len(t, s.Files(), 1)
	assert.Equal(t, "main.py", s.Files()[0].Name)
}

func TestStagerKeepsInvalidFilesWithError(t *testing.T) {
	s := NewStager(0)

	s.Add(FileInput{Name: "malware.exe", Content: []byte("MZ")})

	files := s.Files()
	require.Len(t, files, 1)
	assert.ErrorIs(t, files[0].Err, agentfiles.ErrFileTypeNotAllowed)
	assert.False(t, files[0].Valid())
	assert.Empty(t, s.ValidFiles())
}

func TestStagerCapDropsOldestFiles(t *testing.T) {
	s := NewStager(0)

	var batch []FileInput
	for i := 0; i < DefaultMaxFiles+2; i++ {
		batch = append(batch, FileInput{
			Name:    fmt.Sprintf("file%02d.py", i),
			Content: []byte("x"),
		})
	}
	s.Add(batch...)

	files := s.Files()
	require.Len(t, files, DefaultMaxFiles)
	assert.Equal(t, "file02.py", files[0].Name)
	assert.Equal(t, fmt.Sprintf("file%02d.py", DefaultMaxFiles+1), files[len(files)-1].Name)
}

func TestStagerCapAcrossBatches(t *testing.T) {
	s := NewStager(3)

	s.Add(
		FileInput{Name: "a.py", Content: []byte("x")},
		FileInput{Name: "b.py", Content: []byte("x")},
		FileInput{Name: "c.py", Content: []byte("x")},
	)
	s.Add(FileInput{Name: "d.py", Content: []byte("x")})

	files := s.Files()
	require.Len(t, files, 3)
	assert.Equal(t, "b.py", files[0].Name)
	assert.Equal(t, "d.py", files[2].Name)
}

func TestStagerRemove(t *testing.T) {
	s := NewStager(0)
	s.Add(
		FileInput{Name: "main.py", Content: []byte("x")},
		FileInput{Name: "config.yaml", Content: []byte("y")},
	)

	id := s.Files()[0].LocalID
	assert.True(t, s.Remove(id))
	require.Len(t, s.Files(), 1)
	assert.Equal(t, "config.yaml", s.Files()[0].Name)

	assert.False(t, s.Remove("no-such-id"))
}

func TestStagerOnChangeFiresWithFullList(t *testing.T) {
	s := NewStager(0)

	var seen [][]StagedFile
	s.SetOnChange(func(files []StagedFile) {
		seen = append(seen, files)
	})

	s.Add(FileInput{Name: "main.py", Content: []byte("x")})
	s.Add(FileInput{Name: "config.yaml", Content: []byte("y")})
	s.Remove(s.Files()[0].LocalID)

	require.Len(t, seen, 3)
	assert.Len(t, seen[0], 1)
	assert.Len(t, seen[1], 2)
	assert.Len(t, seen[2], 1)
}

func TestStagerValidFilesDropsEmptyContent(t *testing.T) {
	s := NewStager(0)
	s.Add(
		FileInput{Name: "main.py", Content: []byte("x")},
		FileInput{Name: "empty.py", Content: nil},
	)

	require.Len(t, s.Files(), 2)
	valid := s.ValidFiles()
	require.Len(t, valid, 1)
	assert.Equal(t, "main.py", valid[0].Name)
}
