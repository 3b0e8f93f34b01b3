package transport

import "log/slog"

// transportLogger tags records with the backend name so serial, BLE and
// TCP frame traffic stays distinguishable in one log stream.
func transportLogger(name string, attrs ...any) *slog.Logger {
	logger := slog.With("component", "transport", "transport", name)
	if len(attrs) == 0 {
		return logger
	}

	return logger.With(attrs...)
}
