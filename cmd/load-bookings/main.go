package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/internal/loadtest"
	"github.com/kishor-kashid/SkyGuard-Scheduler-sub000/pkg/logger"
)

// Default configuration constants.
const (
	defaultPilots      = 50
	defaultInstructors = 10
	defaultBookings    = 500
	defaultDays        = 3
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultRunTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:9080", "Base URL of the service")
		pilots      = flag.Int("pilots", defaultPilots, "Student pilots to register")
		instructors = flag.Int("instructors", defaultInstructors, "Instructors to spread bookings over")
		bookings    = flag.Int("bookings", defaultBookings, "Bookings to create")
		days        = flag.Int("days", defaultDays, "Days ahead to spread bookings over")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Concurrent requests")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed        = flag.Int64("seed", 1, "Seed for the generated plan")
		outputFile  = flag.String("output", "", "Write a JSON report to this file")
		logFile     = flag.String("log", "", "Also write log output to this file")
		jsonLogs    = flag.Bool("json", false, "Log in JSON")
		verbose     = flag.Bool("verbose", false, "Log every failed request")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	format := "text"
	if *jsonLogs {
		format = "json"
	}
	closeLog, err := loadtest.SetupLogging(*logFile, format)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)

	config := &loadtest.Config{
		BaseURL:     *baseURL,
		Pilots:      max(*pilots, 1),
		Instructors: max(*instructors, 1),
		Bookings:    *bookings,
		Days:        max(*days, 1),
		Workers:     max(*workers, 1),
		Timeout:     *timeout,
		Seed:        *seed,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	_, err = loadtest.Run(ctx, config)
	cancel()
	if err != nil {
		logger.Get().Error(context.Background(), "load run failed", logger.Error(err))
	}
	_ = closeLog()
	if err != nil {
		os.Exit(1)
	}
}
