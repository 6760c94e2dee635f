// Package media stores uploaded blobs and hands back URLs. The routing
// core never touches blob contents; it only ever sees the returned URL
// inside a message payload.
package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrEmptyBlob is returned when an upload carries no data.
var ErrEmptyBlob = errors.New("empty blob")

// Store saves binary blobs and returns a URL for later retrieval.
type Store interface {
	// Save persists the blob and returns its public URL. filename is the
	// client-supplied name, used only as an extension hint.
	Save(filename string, r io.Reader) (string, error)
}

// DiskStore implements Store on the local filesystem. Files get random
// names; the original name never reaches the disk.
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates a disk-backed blob store rooted at dir. Served
// files are addressed under baseURL.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir returns the directory files are stored in.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes the blob under a random name and returns its URL. The
// extension comes from content sniffing, falling back to the client's
// filename when the type is ambiguous.
func (s *DiskStore) Save(filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read blob: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmptyBlob
	}

	ext := mimetype.Detect(data).Extension()
	if ext == "" || ext == ".bin" {
		if clientExt := path.Ext(filename); clientExt != "" {
			ext = clientExt
		}
	}

	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write blob: %w", err)
	}

	return s.baseURL + "/" + name, nil
}
