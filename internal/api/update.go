package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/liftlights/internal/api/models"
	"github.com/smazurov/liftlights/internal/updater"
)

// UpdateService is the self-update surface used by the API.
type UpdateService interface {
	Enabled() bool
	DisabledReason() string
	Check(ctx context.Context) (*updater.UpdateInfo, error)
	Apply(ctx context.Context) (*updater.UpdateInfo, error)
	Rollback(ctx context.Context) error
	Status() updater.Status
}

// registerUpdateRoutes registers the self-update endpoints. While the
// updater is disabled only the status route answers; the others return 503
// with the reason.
func (s *Server) registerUpdateRoutes() {
	svc := s.options.Updater
	if svc == nil {
		return
	}

	op := func(id, method, path, summary, description string, errs ...int) huma.Operation {
		return huma.Operation{
			OperationID: id,
			Method:      method,
			Path:        path,
			Summary:     summary,
			Description: description,
			Tags:        []string{"update"},
			Errors:      errs,
		}
	}

	huma.Register(s.api, op("get-update-status", http.MethodGet, "/api/update/status",
		"Get Update Status", "Current updater state and whether a rollback is possible"),
		func(_ context.Context, _ *struct{}) (*models.UpdateStatusResponse, error) {
			return &models.UpdateStatusResponse{Body: svc.Status()}, nil
		})

	huma.Register(s.api, op("check-updates", http.MethodGet, "/api/update/check",
		"Check for Updates", "Look for a newer release without downloading it", 409, 500, 503),
		whenEnabled(svc, func(ctx context.Context, _ *struct{}) (*models.UpdateCheckResponse, error) {
			info, err := svc.Check(ctx)
			if err != nil {
				return nil, mapUpdateError(err)
			}
			return &models.UpdateCheckResponse{Body: *info}, nil
		}))

	huma.Register(s.api, op("apply-update", http.MethodPost, "/api/update/apply",
		"Apply Update", "Download and install the newest release, then restart", 400, 409, 500, 503),
		whenEnabled(svc, func(ctx context.Context, _ *struct{}) (*models.UpdateMessageResponse, error) {
			info, err := svc.Apply(ctx)
			if err != nil {
				return nil, mapUpdateError(err)
			}
			return updateMessage("Update applied, restarting...", info.LatestVersion), nil
		}))

	huma.Register(s.api, op("rollback-update", http.MethodPost, "/api/update/rollback",
		"Rollback Update", "Reinstall the binary saved before the last update, then restart", 404, 500, 503),
		whenEnabled(svc, func(ctx context.Context, _ *struct{}) (*models.UpdateMessageResponse, error) {
			if err := svc.Rollback(ctx); err != nil {
				return nil, mapUpdateError(err)
			}
			return updateMessage("Rollback complete, restarting...", svc.Status().BackupVersion), nil
		}))
}

func whenEnabled[I, O any](svc UpdateService, handler func(context.Context, *I) (*O, error)) func(context.Context, *I) (*O, error) {
	return func(ctx context.Context, input *I) (*O, error) {
		if !svc.Enabled() {
			return nil, huma.Error503ServiceUnavailable("Update service disabled: " + svc.DisabledReason())
		}
		return handler(ctx, input)
	}
}

func updateMessage(message, version string) *models.UpdateMessageResponse {
	return &models.UpdateMessageResponse{
		Body: models.UpdateMessageData{Message: message, Version: version},
	}
}

var updateErrorStatus = map[updater.Code]int{
	updater.ErrCodeInvalidState: http.StatusConflict,
	updater.ErrCodeNoUpdate:     http.StatusBadRequest,
	updater.ErrCodeNotFound:     http.StatusNotFound,
	updater.ErrCodeNoBackup:     http.StatusNotFound,
	updater.ErrCodeDisabled:     http.StatusServiceUnavailable,
}

// mapUpdateError turns updater errors into HTTP errors; unknown codes and
// foreign errors become 500.
func mapUpdateError(err error) error {
	var updateErr *updater.Error
	if !errors.As(err, &updateErr) {
		return huma.Error500InternalServerError(err.Error())
	}
	if status, ok := updateErrorStatus[updateErr.Code]; ok {
		return huma.NewError(status, updateErr.Message)
	}
	return huma.Error500InternalServerError(updateErr.Message, err)
}
