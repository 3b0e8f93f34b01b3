package bluetoothutil

import (
	"runtime"
	"strings"

	"tinygo.org/x/bluetooth"
)

// EnableAdapter powers the adapter up before the radio link is dialed,
// swallowing the one error that means it is already usable.
func EnableAdapter(adapter *bluetooth.Adapter) error {
	if err := adapter.Enable(); err != nil {
		if isBenignEnableAdapterError(err) {
			return nil
		}
		return err
	}
	return nil
}

func isBenignEnableAdapterError(err error) bool {
	if err == nil || runtime.GOOS != "windows" {
		return false
	}

	// On Windows tinygo.org/x/bluetooth reports RoInitialize's S_FALSE as
	// "Incorrect function." although COM is already up at that point.
	msg := strings.TrimSpace(strings.ToLower(err.Error()))

	return msg == "incorrect function" || msg == "incorrect function."
}
