package led

import (
	"os"
	"strings"

	"github.com/smazurov/liftlights/internal/logging"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// board maps a device tree model substring to its LED type -> sysfs names.
type board struct {
	model string
	leds  map[string]string
}

var knownBoards = []board{
	{"NanoPC-T6", map[string]string{"user": "usr_led", "system": "sys_led"}},
	{"Orange Pi", map[string]string{"blue": "blue_led", "green": "green_led"}},
	{"Raspberry Pi", map[string]string{"act": "ACT", "pwr": "PWR"}},
}

// New picks an LED controller for the detected board, falling back to a
// no-op controller.
func New(logger logging.Logger) Controller {
	return forModel(detectBoard(), logger)
}

func forModel(model string, logger logging.Logger) Controller {
	for _, b := range knownBoards {
		if strings.Contains(model, b.model) {
			if logger != nil {
				logger.Info("Using sysfs LED controller", "board_model", model)
			}
			return newSysfs(b.leds)
		}
	}
	if logger != nil {
		logger.Info("No LED support detected, using no-op controller", "board_model", model)
	}
	return newNoop(logger)
}

func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}
	return strings.TrimRight(string(data), "\x00\n")
}
