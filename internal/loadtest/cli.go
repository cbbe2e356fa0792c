package loadtest

import (
	"fmt"
	"io"
	"os"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well. The returned func closes the file.
func SetupLogging(logFile string, format string) (func() error, error) {
	if logFile == "" {
		return func() error { return nil }, logger.Init(logger.WithFormat(format))
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	if err := logger.Init(logger.WithOutput(io.MultiWriter(os.Stdout, file)), logger.WithFormat(format)); err != nil {
		_ = file.Close()
		return nil, err
	}
	return file.Close, nil
}

// ShowHelp prints usage information for the load tool.
func ShowHelp() {
	os.Stdout.WriteString(`SkyGuard Booking Load Tool
==========================

Drives a running SkyGuard server through the whole booking flow: registers
pilots, creates bookings, checks the weather for each, reschedules the held
ones and verifies every booking history.

Usage:
  load-bookings [options]

Options:
  -url string          Base URL of the service (default "http://localhost:9080")
  -pilots int          Student pilots to register (default 50)
  -instructors int     Instructors to spread bookings over (default 10)
  -bookings int        Bookings to create (default 500)
  -days int            Days ahead to spread bookings over (default 3)
  -workers int         Concurrent requests (default CPU cores * 2)
  -timeout duration    HTTP request timeout (default 30s)
  -seed int            Seed for the generated plan (default 1)
  -output string       Write a JSON report with the plan and statistics
  -log string          Also write log output to this file
  -json                Log in JSON
  -verbose             Log every failed request
  -help                Show this help message

The exit status is non-zero when the server is unreachable or any booking
history fails verification.
`)
}
