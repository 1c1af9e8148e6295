//go:build !ws281x

package strip

import (
	"errors"
	"log/slog"
)

func newWS281x(_, _ int, _ *slog.Logger) (Strip, error) {
	return nil, errors.New("ws281x backend not compiled in; rebuild with -tags ws281x")
}
