// Package storage keeps payment proof images outside the database. The rest
// of the service only ever sees the URL a store hands back.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"safeflame-backend/internal/config"

	"github.com/google/uuid"
)

var ErrEmptyObject = errors.New("empty object name")

type ProofStore interface {
	// Put stores a normalized JPEG and returns the URL it can be fetched from.
	Put(ctx context.Context, name string, data []byte) (string, error)
	// Delete removes an object; a missing object is not an error.
	Delete(ctx context.Context, name string) error
}

// ObjectName builds a unique, non-guessable key for a user's proof.
func ObjectName(userID uint) string {
	return fmt.Sprintf("payment-proofs/%d/%s.jpg", userID, uuid.NewString())
}

// LocalStore writes files under a directory served statically by the API.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Put(_ context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", ErrEmptyObject
	}
	path := filepath.Join(s.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create proof directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write proof: %w", err)
	}
	return s.baseURL + "/" + name, nil
}

func (s *LocalStore) Delete(_ context.Context, name string) error {
	if name == "" {
		return ErrEmptyObject
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove proof: %w", err)
	}
	return nil
}

func New(ctx context.Context, cfg *config.Config) (ProofStore, error) {
	switch cfg.ProofStorage {
	case "gcs":
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsJSON)
	case "", "local":
		return NewLocalStore(cfg.ProofLocalPath, cfg.ProofPublicBaseURL), nil
	}
	return nil, fmt.Errorf("unknown PROOF_STORAGE %q", cfg.ProofStorage)
}
