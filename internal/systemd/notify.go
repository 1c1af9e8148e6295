// Package systemd reports service lifecycle to systemd through sd_notify.
package systemd

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
)

// notifyFunc matches daemon.SdNotify.
type notifyFunc func(unsetEnvironment bool, state string) (bool, error)

// Notifier sends READY, WATCHDOG and STOPPING. Outside systemd every call is
// a silent no-op.
type Notifier struct {
	notify   notifyFunc
	watchdog time.Duration
	ready    atomic.Bool
	logger   *slog.Logger
}

// NewNotifier reads the unit's watchdog interval from the environment.
func NewNotifier(logger *slog.Logger) *Notifier {
	n := &Notifier{notify: daemon.SdNotify, logger: logger}
	if interval, err := daemon.SdWatchdogEnabled(false); err != nil {
		logger.Warn("Failed to read systemd watchdog settings", "error", err)
	} else {
		n.watchdog = interval
	}
	return n
}

// WatchdogInterval is the unit's WatchdogSec, zero when disabled.
func (n *Notifier) WatchdogInterval() time.Duration {
	return n.watchdog
}

// Ready reports READY=1 once. Later calls do nothing.
func (n *Notifier) Ready() {
	if n.ready.Swap(true) {
		return
	}
	n.send(daemon.SdNotifyReady)
}

// Watchdog pets the watchdog when the unit has one.
func (n *Notifier) Watchdog() {
	if n.watchdog <= 0 {
		return
	}
	n.send(daemon.SdNotifyWatchdog)
}

// Stopping reports STOPPING=1.
func (n *Notifier) Stopping() {
	n.send(daemon.SdNotifyStopping)
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(text string) {
	n.send("STATUS=" + text)
}

func (n *Notifier) send(state string) {
	sent, err := n.notify(false, state)
	switch {
	case err != nil:
		n.logger.Warn("sd_notify failed", "state", state, "error", err)
	case sent:
		n.logger.Debug("sd_notify sent", "state", state)
	}
}
