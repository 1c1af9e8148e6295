package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/smazurov/liftlights/internal/version"
)

// DefaultRepository is where releases are published.
const DefaultRepository = "smazurov/liftlights"

// releaseSource is the part of *selfupdate.Updater the Updater uses.
type releaseSource interface {
	DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error)
	UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error
}

// Updater replaces the running binary with the newest GitHub release.
type Updater struct {
	repository selfupdate.Repository
	source     releaseSource
	backup     *backupStore
	restart    func()
	logger     *slog.Logger

	mu            sync.RWMutex
	state         State
	latestRelease *selfupdate.Release
	lastChecked   *time.Time
	lastError     error

	enabled        bool
	disabledReason string
}

// New creates an Updater. When the executable's directory is not writable
// the Updater is returned disabled rather than failing.
func New(opts Options, logger *slog.Logger) (*Updater, error) {
	if opts.Repository == "" {
		opts.Repository = DefaultRepository
	}

	u := &Updater{
		repository: selfupdate.ParseSlug(opts.Repository),
		restart:    opts.Restart,
		logger:     logger,
		state:      StateIdle,
	}

	if ok, reason := checkWritePermission(); !ok {
		logger.Warn("Update service disabled", "reason", reason)
		u.disabledReason = reason
		return u, nil
	}

	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub source: %w", err)
	}
	su, err := selfupdate.NewUpdater(selfupdate.Config{
		Source:     source,
		Prerelease: opts.Prerelease,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create updater: %w", err)
	}
	u.source = su
	u.enabled = true

	backup, err := newBackupStore(opts.BackupDir, logger)
	if err != nil {
		logger.Warn("Rollback unavailable", "error", err)
	}
	u.backup = backup

	return u, nil
}

func checkWritePermission() (bool, string) {
	exe, err := os.Executable()
	if err != nil {
		return false, fmt.Sprintf("failed to get executable path: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return false, fmt.Sprintf("failed to resolve symlinks: %v", err)
	}

	dir := filepath.Dir(exe)
	f, err := os.CreateTemp(dir, "."+version.Name+".update-*")
	if err != nil {
		return false, fmt.Sprintf("no write permission to %s: %v", dir, err)
	}
	f.Close()
	os.Remove(f.Name())
	return true, ""
}

// Enabled reports whether updates can be applied.
func (u *Updater) Enabled() bool {
	return u.enabled
}

// DisabledReason explains why Enabled is false.
func (u *Updater) DisabledReason() string {
	return u.disabledReason
}

// Check asks GitHub for the latest release without downloading it.
func (u *Updater) Check(ctx context.Context) (*UpdateInfo, error) {
	if !u.enabled {
		return nil, fail(ErrCodeDisabled, u.disabledReason, nil)
	}
	if !u.transitionTo(StateChecking, StateIdle, StateAvailable, StateError, StateRolledBack) {
		return nil, fail(ErrCodeInvalidState,
			fmt.Sprintf("cannot check for updates in state %s", u.getState()), nil)
	}

	release, found, err := u.source.DetectLatest(ctx, u.repository)
	now := time.Now()
	u.mu.Lock()
	u.lastChecked = &now
	u.mu.Unlock()

	if err != nil {
		u.setError(err)
		return nil, fail(ErrCodeCheckFailed, "failed to check for updates", err)
	}
	if !found {
		err := fmt.Errorf("no release found for %s", u.repository)
		u.setError(err)
		return nil, fail(ErrCodeNotFound, "repository not found or has no releases", err)
	}

	current := version.Version
	info := &UpdateInfo{
		CurrentVersion: current,
		LatestVersion:  release.Version(),
		ReleaseNotes:   release.ReleaseNotes,
		ReleaseURL:     release.URL,
		PublishedAt:    release.PublishedAt,
		AssetSize:      release.AssetByteSize,
	}

	// Development builds are always behind.
	if current != "dev" && !release.GreaterThan(current) {
		u.transitionTo(StateIdle)
		return info, nil
	}

	u.mu.Lock()
	u.latestRelease = release
	u.mu.Unlock()
	u.transitionTo(StateAvailable)

	info.UpdateAvailable = true
	u.logger.Info("Update available", "current", current, "latest", info.LatestVersion)
	return info, nil
}

// Apply downloads and installs the release found by Check, checking first
// if needed. The previous binary is backed up and restored on failure.
func (u *Updater) Apply(ctx context.Context) (*UpdateInfo, error) {
	if !u.enabled {
		return nil, fail(ErrCodeDisabled, u.disabledReason, nil)
	}

	info, err := u.Check(ctx)
	if err != nil {
		return nil, err
	}
	if !info.UpdateAvailable {
		return info, fail(ErrCodeNoUpdate, "already running the latest release", nil)
	}

	if !u.transitionTo(StateApplying, StateAvailable) {
		return nil, fail(ErrCodeInvalidState,
			fmt.Sprintf("cannot apply update in state %s", u.getState()), nil)
	}

	if u.backup != nil {
		if err := u.backup.saveRunning(); err != nil {
			u.setError(err)
			return nil, fail(ErrCodeBackupFailed, "failed to create backup", err)
		}
	}

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		u.setError(err)
		return nil, fail(ErrCodeApplyFailed, "failed to get executable path", err)
	}

	u.mu.RLock()
	release := u.latestRelease
	u.mu.RUnlock()

	if err := u.source.UpdateTo(ctx, release, exe); err != nil {
		u.setError(err)
		u.attemptRollback()
		return nil, fail(ErrCodeApplyFailed, "failed to apply update", err)
	}

	u.logger.Info("Update applied", "version", release.Version())
	u.scheduleRestart()
	return info, nil
}

// Rollback restores the binary saved by the last Apply.
func (u *Updater) Rollback(_ context.Context) error {
	if !u.enabled {
		return fail(ErrCodeDisabled, u.disabledReason, nil)
	}
	if u.backup == nil {
		return fail(ErrCodeNoBackup, "no backup available for rollback", nil)
	}
	saved, ok := u.backup.latest()
	if !ok {
		return fail(ErrCodeNoBackup, "no backup available for rollback", nil)
	}
	if err := u.backup.restore(); err != nil {
		return fail(ErrCodeRollbackFailed, "failed to restore backup", err)
	}

	u.transitionTo(StateRolledBack)
	u.logger.Info("Rollback completed", "version", saved.Version)
	u.scheduleRestart()
	return nil
}

// Status returns a snapshot of the updater.
func (u *Updater) Status() Status {
	u.mu.RLock()
	defer u.mu.RUnlock()

	s := Status{
		State:          u.state,
		Enabled:        u.enabled,
		DisabledReason: u.disabledReason,
		CurrentVersion: version.Version,
		LastChecked:    u.lastChecked,
	}
	if u.latestRelease != nil {
		s.TargetVersion = u.latestRelease.Version()
	}
	if u.lastError != nil {
		s.Error = u.lastError.Error()
	}
	if u.backup != nil {
		if saved, ok := u.backup.latest(); ok {
			s.BackupAvailable = true
			s.BackupVersion = saved.Version
		}
	}
	return s
}

func (u *Updater) scheduleRestart() {
	if u.restart == nil {
		u.transitionTo(StateIdle)
		return
	}
	u.transitionTo(StateRestarting)
	// Give the HTTP response time to leave before the process goes down.
	go func() {
		time.Sleep(500 * time.Millisecond)
		u.restart()
	}()
}

func (u *Updater) transitionTo(newState State, validFromStates ...State) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	if len(validFromStates) > 0 && !slices.Contains(validFromStates, u.state) {
		return false
	}

	u.logger.Debug("State transition", "from", u.state, "to", newState)
	u.state = newState
	u.lastError = nil
	return true
}

func (u *Updater) getState() State {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.state
}

func (u *Updater) setError(err error) {
	u.mu.Lock()
	u.lastError = err
	u.state = StateError
	u.mu.Unlock()
}

func (u *Updater) attemptRollback() {
	if u.backup == nil {
		u.logger.Error("No backup available for automatic rollback")
		return
	}
	if err := u.backup.restore(); err != nil {
		u.logger.Error("Failed to restore backup", "error", err)
		return
	}
	u.transitionTo(StateRolledBack)
	u.logger.Info("Automatic rollback completed")
}

// SignalRestart sends SIGTERM to the current process so the service
// manager starts the new binary.
func SignalRestart() {
	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		return
	}
	_ = proc.Signal(syscall.SIGTERM)
}

// Code classifies a failed update operation.
type Code string

const (
	ErrCodeInvalidState   Code = "invalid_state"
	ErrCodeCheckFailed    Code = "check_failed"
	ErrCodeNotFound       Code = "not_found"
	ErrCodeNoUpdate       Code = "no_update"
	ErrCodeApplyFailed    Code = "apply_failed"
	ErrCodeBackupFailed   Code = "backup_failed"
	ErrCodeRollbackFailed Code = "rollback_failed"
	ErrCodeNoBackup       Code = "no_backup"
	ErrCodeDisabled       Code = "disabled"
)

// Error is returned by Check, Apply and Rollback. Message is safe to show
// to API clients; Err is the underlying failure, if any.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the Code carried by err, or "" when err is not an *Error.
func CodeOf(err error) Code {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Code
	}
	return ""
}

func fail(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}
