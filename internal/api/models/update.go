package models

import "github.com/smazurov/liftlights/internal/updater"

// UpdateCheckResponse wraps the release lookup result.
type UpdateCheckResponse struct {
	Body updater.UpdateInfo
}

// UpdateStatusResponse wraps the updater state.
type UpdateStatusResponse struct {
	Body updater.Status
}

// UpdateMessageData is returned by operations that end in a restart.
type UpdateMessageData struct {
	Message string `json:"message" example:"Update applied, restarting..." doc:"Status message"`
	Version string `json:"version,omitempty" example:"v0.4.0" doc:"Version that will run after the restart"`
}

// UpdateMessageResponse wraps UpdateMessageData.
type UpdateMessageResponse struct {
	Body UpdateMessageData
}
