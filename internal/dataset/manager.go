// Package dataset keeps a local copy of the Open Food Facts parquet dump that
// backs product lookups.
package dataset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Metadata is stored next to the parquet file and used for freshness checks
type Metadata struct {
	SHA256       string    `json:"sha256"`
	DownloadedAt time.Time `json:"downloaded_at"`
	ETag         string    `json:"etag,omitempty"`
	Size         int64     `json:"size"`
}

// Outcome reports what Ensure did
type Outcome string

const (
	OutcomeDownloaded Outcome = "downloaded"
	OutcomeUpToDate   Outcome = "up_to_date"
	OutcomeWaited     Outcome = "waited"
)

// Manager downloads the dump to a local path. A lock file next to the target
// keeps concurrent instances from downloading at the same time.
type Manager struct {
	url          string
	path         string
	metadataPath string
	lockPath     string
	client       *http.Client
	log          *slog.Logger

	pollInterval time.Duration
	waitTimeout  time.Duration
}

// NewManager creates a manager that stores url at path
func NewManager(url, path string, logger *slog.Logger) *Manager {
	return &Manager{
		url:          url,
		path:         path,
		metadataPath: path + ".meta.json",
		lockPath:     path + ".lock",
		client:       &http.Client{Timeout: 30 * time.Minute},
		log:          logger,
		pollInterval: 2 * time.Second,
		waitTimeout:  10 * time.Minute,
	}
}

// Ensure makes sure the local copy exists and matches the remote one.
// force skips the freshness check.
func (m *Manager) Ensure(ctx context.Context, force bool) (Outcome, error) {
	start := time.Now()
	m.log.Info("Ensuring catalog dataset", "path", m.path, "url", m.url, "force", force)

	if _, err := os.Stat(m.path); err == nil && !force {
		upToDate, err := m.isUpToDate(ctx)
		if err != nil {
			m.log.Warn("Failed to verify dataset freshness", "error", err)
		}
		if upToDate {
			m.log.Info("Dataset is up-to-date", "duration", time.Since(start))
			return OutcomeUpToDate, nil
		}
	}

	outcome, err := m.downloadWithLock(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to download dataset: %w", err)
	}

	m.log.Info("Dataset ensured", "outcome", outcome, "duration", time.Since(start))
	return outcome, nil
}

// isUpToDate compares the local metadata with a HEAD of the remote file,
// by ETag when both sides have one and by size otherwise
func (m *Manager) isUpToDate(ctx context.Context) (bool, error) {
	local, err := m.loadMetadata()
	if err != nil {
		m.log.Debug("No local metadata found", "error", err)
		return false, nil
	}

	remote, err := m.remoteMetadata(ctx)
	if err != nil {
		return false, err
	}

	if remote.ETag != "" && local.ETag != "" {
		return remote.ETag == local.ETag, nil
	}
	return remote.Size == local.Size, nil
}

func (m *Manager) remoteMetadata(ctx context.Context) (*Metadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, m.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HEAD request failed with status: %d", resp.StatusCode)
	}
	return &Metadata{ETag: resp.Header.Get("ETag"), Size: resp.ContentLength}, nil
}

func (m *Manager) downloadWithLock(ctx context.Context) (Outcome, error) {
	lock, err := acquireLock(m.lockPath)
	if errors.Is(err, os.ErrExist) {
		m.log.Info("Another instance is downloading, waiting", "lock_path", m.lockPath)
		return OutcomeWaited, m.waitForDownload(ctx)
	}
	if err != nil {
		return "", err
	}
	defer releaseLock(lock, m.lockPath)

	meta, err := m.download(ctx)
	if err != nil {
		return "", err
	}
	if err := m.saveMetadata(meta); err != nil {
		m.log.Warn("Failed to save metadata", "error", err)
	}
	return OutcomeDownloaded, nil
}

// download streams the file to a temp path next to the target, hashing as it
// goes, then renames it into place
func (m *Manager) download(ctx context.Context) (*Metadata, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	hash := sha256.New()
	written, err := io.Copy(io.MultiWriter(tmp, hash), resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write dataset: %w", err)
	}

	if err := os.Rename(tmp.Name(), m.path); err != nil {
		return nil, fmt.Errorf("failed to move dataset into place: %w", err)
	}

	meta := &Metadata{
		SHA256:       hex.EncodeToString(hash.Sum(nil)),
		DownloadedAt: time.Now().UTC(),
		ETag:         resp.Header.Get("ETag"),
		Size:         written,
	}
	m.log.Info("Dataset downloaded", "bytes", written, "sha256", meta.SHA256[:16]+"...", "duration", time.Since(start))
	return meta, nil
}

// waitForDownload polls until the other instance releases the lock
func (m *Manager) waitForDownload(ctx context.Context) error {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	timeout := time.After(m.waitTimeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return errors.New("timeout waiting for download by other instance")
		case <-ticker.C:
			if _, err := os.Stat(m.lockPath); errors.Is(err, os.ErrNotExist) {
				if _, err := os.Stat(m.path); err != nil {
					return fmt.Errorf("other instance finished without a dataset: %w", err)
				}
				return nil
			}
		}
	}
}

func (m *Manager) loadMetadata() (*Metadata, error) {
	data, err := os.ReadFile(m.metadataPath)
	if err != nil {
		return nil, err
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (m *Manager) saveMetadata(meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.metadataPath, data, 0o644)
}

// acquireLock creates the lock file exclusively; os.ErrExist means it is held
func acquireLock(lockPath string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}
	return os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
}

func releaseLock(f *os.File, lockPath string) {
	f.Close()
	os.Remove(lockPath)
}
