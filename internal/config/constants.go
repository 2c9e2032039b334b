package config

import "time"

// Application constants
const (
	AppName    = "NEPSE Features"
	AppVersion = "1.0.0"

	// File Paths (relative to the base directory)
	DefaultDataDir      = "data"
	DefaultOutputDir    = "data/features"
	DefaultMetadataFile = "metadata.csv"
	DefaultLogsDir      = "logs"
	DefaultLogFile      = "logs/nepse.log"

	// Output naming
	FeatureFileSuffix = "_features.csv"

	// Indicator defaults
	DefaultSMAWindow  = 20
	DefaultRSIWindow  = 14
	DefaultFastSpan   = 12
	DefaultSlowSpan   = 26
	DefaultSignalSpan = 9

	// Concurrency
	DefaultWorkers = 4

	// Rate Limiting
	DefaultRateLimit = 20 // requests per second
	DefaultBurstSize = 40

	// Feature cache entries held by the API
	DefaultCacheSize = 128

	// Scheduling: weekdays 16:30 (seconds field first). NEPSE trades Sunday-Thursday.
	DefaultScheduleCron  = "0 30 16 * * 0-4"
	DefaultWatchDebounce = 2 * time.Second

	// Log Settings
	DefaultLogLevel   = "info"
	MaxLogFileSizeMB  = 100
	MaxLogFileAge     = 30 // days
	MaxLogFileBackups = 10
)
