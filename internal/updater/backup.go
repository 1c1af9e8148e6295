// Package updater installs newer releases of the binary from GitHub.
package updater

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/pelletier/go-toml/v2"

	"github.com/smazurov/liftlights/internal/version"
)

const (
	previousBinary   = "previous"
	previousManifest = "previous.toml"
)

var errNoBackup = errors.New("no backup available")

// manifest describes the binary kept for rollback.
type manifest struct {
	Version string    `toml:"version"`
	SavedAt time.Time `toml:"saved_at"`
	Target  string    `toml:"target"`
	SHA256  string    `toml:"sha256"`
}

// backupStore keeps one previous binary plus its manifest. Both are written
// through a temp file and rename, so a crash never leaves a half-written
// binary that a later rollback would install.
type backupStore struct {
	dir    string
	logger *slog.Logger

	mu   sync.RWMutex
	last *manifest
}

func newBackupStore(dir string, logger *slog.Logger) (*backupStore, error) {
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("no backup directory: %w", err)
		}
		dir = filepath.Join(cache, version.Name, "backup")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	s := &backupStore{dir: dir, logger: logger}
	if m, err := s.readManifest(); err == nil {
		s.last = m
		logger.Info("Rollback available", "version", m.Version, "saved_at", m.SavedAt)
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Ignoring unreadable backup", "error", err)
	}
	return s, nil
}

func (s *backupStore) readManifest() (*manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, previousManifest))
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if _, err := os.Stat(filepath.Join(s.dir, previousBinary)); err != nil {
		return nil, err
	}
	return &m, nil
}

// saveRunning backs up the executable of this process.
func (s *backupStore) saveRunning() error {
	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return err
	}
	return s.save(exe)
}

func (s *backupStore) save(target string) error {
	sum, err := replaceFile(filepath.Join(s.dir, previousBinary), target, 0o755)
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", target, err)
	}

	m := &manifest{
		Version: version.Version,
		SavedAt: time.Now().UTC(),
		Target:  target,
		SHA256:  sum,
	}
	data, err := toml.Marshal(m)
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(s.dir, previousManifest), data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	s.mu.Lock()
	s.last = m
	s.mu.Unlock()

	s.logger.Info("Saved binary for rollback", "version", m.Version, "target", target)
	return nil
}

// restore puts the saved binary back in place after checking its digest.
func (s *backupStore) restore() error {
	m, ok := s.latest()
	if !ok {
		return errNoBackup
	}

	src := filepath.Join(s.dir, previousBinary)
	sum, err := fileDigest(src)
	if err != nil {
		return err
	}
	if sum != m.SHA256 {
		return fmt.Errorf("backup of %s is corrupt: digest %s, want %s", m.Version, sum, m.SHA256)
	}

	if _, err := replaceFile(m.Target, src, 0o755); err != nil {
		return fmt.Errorf("failed to restore %s: %w", m.Target, err)
	}
	s.logger.Info("Restored previous binary", "version", m.Version)
	return nil
}

// latest returns the manifest of the saved binary, if any.
func (s *backupStore) latest() (manifest, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return manifest{}, false
	}
	return *s.last, true
}

// replaceFile copies src over dst through a temp file in dst's directory
// and returns the hex SHA-256 of the copied bytes.
func replaceFile(dst, src string, perm os.FileMode) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer in.Close()

	h := sha256.New()
	err = writeAtomic(dst, perm, func(w io.Writer) error {
		_, err := io.Copy(io.MultiWriter(w, h), in)
		return err
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeFileAtomic(dst string, data []byte, perm os.FileMode) error {
	return writeAtomic(dst, perm, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}

func writeAtomic(dst string, perm os.FileMode, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
