package updater

import "time"

// State represents the current state of the update process.
type State string

// Update states.
const (
	StateIdle       State = "idle"
	StateChecking   State = "checking"
	StateAvailable  State = "available"
	StateApplying   State = "applying"
	StateRestarting State = "restarting"
	StateError      State = "error"
	StateRolledBack State = "rolled_back"
)

// UpdateInfo describes the newest release compared with the running build.
type UpdateInfo struct {
	CurrentVersion  string    `json:"current_version" example:"v0.3.0" doc:"Running version"`
	LatestVersion   string    `json:"latest_version" example:"v0.4.0" doc:"Newest published version"`
	ReleaseNotes    string    `json:"release_notes,omitempty" doc:"Release notes"`
	ReleaseURL      string    `json:"release_url,omitempty" doc:"Release page"`
	PublishedAt     time.Time `json:"published_at" doc:"Publication time"`
	AssetSize       int       `json:"asset_size,omitempty" doc:"Download size in bytes"`
	UpdateAvailable bool      `json:"update_available" doc:"Whether the newest release is newer than the running build"`
}

// Status is a snapshot of the updater.
type Status struct {
	State           State      `json:"state" example:"idle" doc:"Updater state"`
	Enabled         bool       `json:"enabled" doc:"Whether the binary can be replaced"`
	DisabledReason  string     `json:"disabled_reason,omitempty" doc:"Why updates are disabled"`
	CurrentVersion  string     `json:"current_version" doc:"Running version"`
	TargetVersion   string     `json:"target_version,omitempty" doc:"Release selected by the last check"`
	Error           string     `json:"error,omitempty" doc:"Last failure"`
	LastChecked     *time.Time `json:"last_checked,omitempty" doc:"Time of the last check"`
	BackupAvailable bool       `json:"backup_available" doc:"Whether a rollback is possible"`
	BackupVersion   string     `json:"backup_version,omitempty" doc:"Version held in the backup"`
}

// Options configures an Updater.
type Options struct {
	Repository string // GitHub slug, e.g. "smazurov/liftlights"
	Prerelease bool
	// BackupDir holds the previous binary. Defaults to liftlights/backup under the user cache directory.
	BackupDir string
	// Restart is called after a successful apply or rollback. Nil leaves the
	// new binary to be picked up on the next start.
	Restart func()
}
