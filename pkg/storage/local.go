package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a file id is unknown for the user.
var ErrNotFound = errors.New("file not found")

const metaDir = ".meta"

// LocalStorage implements Storage using the local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local filesystem storage
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save stores a file and returns its metadata
func (s *LocalStorage) Save(_ context.Context, userID string, u Upload, r io.Reader) (*FileInfo, error) {
	fileID := uuid.New()

	userDir := s.userDir(userID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	// UUID prefix keeps repeated uploads of the same name apart
	storedFilename := fmt.Sprintf("%s_%s", fileID.String()[:8], sanitizeFilename(u.Name))
	filePath := filepath.Join(userDir, storedFilename)

	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, r)
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	info := &FileInfo{
		ID:          fileID,
		IngestID:    u.IngestID,
		Name:        u.Name,
		Source:      u.Source,
		Size:        size,
		ContentType: u.ContentType,
		Path:        storedFilename,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.saveMetadata(userID, info); err != nil {
		os.Remove(filePath)
		return nil, err
	}
	return info, nil
}

// Open returns a reader for a stored file
func (s *LocalStorage) Open(_ context.Context, userID string, fileID uuid.UUID) (io.ReadCloser, *FileInfo, error) {
	info, err := s.info(userID, fileID)
	if err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.userDir(userID), info.Path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, info, nil
}

// List returns all files for a user
func (s *LocalStorage) List(_ context.Context, userID string) ([]*FileInfo, error) {
	dir := filepath.Join(s.userDir(userID), metaDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*FileInfo{}, nil
		}
		return nil, fmt.Errorf("failed to list metadata: %w", err)
	}

	files := make([]*FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		id, err := uuid.Parse(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			continue
		}
		info, err := s.info(userID, id)
		if err != nil {
			continue
		}
		files = append(files, info)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].CreatedAt.Before(files[j].CreatedAt)
	})
	return files, nil
}

func (s *LocalStorage) info(userID string, fileID uuid.UUID) (*FileInfo, error) {
	metaPath := filepath.Join(s.userDir(userID), metaDir, fileID.String()+".json")

	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, fileID)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var info FileInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &info, nil
}

func (s *LocalStorage) saveMetadata(userID string, info *FileInfo) error {
	dir := filepath.Join(s.userDir(userID), metaDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create metadata directory: %w", err)
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, info.ID.String()+".json"), data, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// userDir maps a caller-supplied user id onto a single safe path component.
func (s *LocalStorage) userDir(userID string) string {
	return filepath.Join(s.basePath, sanitizeFilename(userID))
}

// sanitizeFilename removes unsafe characters from filenames
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		"..", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)
	name = replacer.Replace(strings.TrimSpace(name))
	if name == "" || name == "." {
		return "_"
	}
	return name
}
