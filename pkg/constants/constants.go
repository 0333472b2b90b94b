// Package constants provides shared constants used throughout the harvester.
// This includes size ceilings, timeouts, file permissions, and other values
// that should be consistent across the application.
package constants

import "time"

// Fetch constants bound the retrieval of remote feed pages
const (
	// MaxFileSizeBytes is the largest feed page accepted (50 MiB)
	MaxFileSizeBytes int64 = 50 * 1024 * 1024

	// ChunkSizeBytes is the read size used while streaming a page body
	ChunkSizeBytes = 1024

	// DefaultHTTPTimeout is the per-request timeout for feed pages
	DefaultHTTPTimeout = 60 * time.Second

	// LicenseLookupTimeout bounds the best-effort license document fetch
	LicenseLookupTimeout = 10 * time.Second

	// PageParam is the query parameter appended for pages after the first
	PageParam = "page"

	// FirstPage is the number of the first page of a feed
	FirstPage = 1
)

// Timeout constants define various timeout durations used in the application
const (
	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// HarvestTimeout is the timeout for one full gather and import cycle
	HarvestTimeout = 30 * time.Minute

	// DefaultScheduleInterval is the default interval between scheduled harvests
	DefaultScheduleInterval = 24 * time.Hour

	// ShutdownTimeout bounds graceful shutdown of servers and connections
	ShutdownTimeout = 10 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644
)

// Limit constants define various limits and capacities
const (
	// MaxNameLength is the maximum length of a dataset or organization name
	MaxNameLength = 100

	// MaxNameSuffix is the highest numeric suffix tried for a colliding name
	MaxNameSuffix = 9

	// DefaultImportWorkers is the default number of concurrent imports
	DefaultImportWorkers = 4

	// DefaultFetchBurst is the token bucket burst for rate limited fetching
	DefaultFetchBurst = 1
)

// Cache constants
const (
	// LicenseCacheTTL is how long a resolved license stays cached
	LicenseCacheTTL = 1 * time.Hour

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 10 * time.Minute
)

// Default values
const (
	// DefaultLanguage is used when a record carries no language list
	DefaultLanguage = "eng"

	// DefaultTheme is used when no keyword matches the theme vocabulary
	DefaultTheme = "Environment"

	// DefaultLicenseID is used when license resolution fails
	DefaultLicenseID = "other"

	// Placeholder fills contact fields a publisher does not provide
	Placeholder = "-"
)

// Format constants
const (
	// DateFormat is the local catalog date convention (day/month/year)
	DateFormat = "02/01/2006"

	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339
)

// Path constants
const (
	// DefaultConfigFile is the config file name looked up in the home directory
	DefaultConfigFile = ".harvester"

	// DefaultSourcesFile is the default source definitions file
	DefaultSourcesFile = "sources.yaml"
)
