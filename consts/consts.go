package consts

import "time"

// Server configuration
const (
	DefaultPort       = "8080"
	ReadHeaderTimeout = 3 * time.Second
	RateLimitRequests = 10
	RateLimitWindow   = time.Minute
	MaxUploadBytes    = 10 << 20
)

// Cron schedules
const (
	CronGenerateChart = "5 0 * * *"  // Daily at 00:05 UTC
	CronCleanup       = "30 0 * * *" // Daily at 00:30 UTC
)

// Data retention and caching
const (
	UploadRetentionDays = 30
	DatasetCacheTTL     = time.Hour
	CacheCleanupEvery   = 10 * time.Minute
)

// File paths and directories
const (
	DefaultDataFile = "countriesMBTI_16types.csv"
	DBFile          = "mbti.db"
	ChartDataDir    = "web/chartdata"
	ChartsJSONFile  = "charts.json"
	ExportFileName  = "mbti_top_countries.csv"
)

// File permissions
const (
	DirPermissions  = 0750
	FilePermissions = 0600
)

// Date formats
const (
	DateFormat     = "2006-01-02"
	DateTimeFormat = "2006-01-02 15:04:05"
)

// Dataset normalization
const (
	CountryColumn = "Country"
	// Values above this are read as percentages (0-100) rather than fractions.
	PercentThreshold = 1.5
)

// Selection bounds
const (
	TopNMin     = 5
	TopNMax     = 20
	TopNDefault = 10
)

// Chart configuration
const (
	ChartWidth       = "1100px"
	FacetWidth       = "340px"
	FacetColumns     = 4
	BarRowHeight     = 28
	BarChartPadding  = 20
	LabelDecimals    = 1
	TooltipDecimals  = 2
	SingleDimOpacity = 0.7
	FacetDimOpacity  = 0.75
)

// Chart colors and styling
const (
	ChartBackgroundColor = "#ffffff"
	ChartTextColor       = "#000000"
	SingleBarColor       = "#4c78a8"
)

// TypePalette colors facets by the position of their type code in the sorted type list.
var TypePalette = []string{
	"#4c78a8", "#f58518", "#e45756", "#72b7b2",
	"#54a24b", "#eeca3b", "#b279a2", "#ff9da6",
	"#9d755d", "#bab0ac", "#1f77b4", "#ff7f0e",
	"#2ca02c", "#d62728", "#9467bd", "#8c564b",
}

// DefaultCompareTypes is preselected for the multiple-type view when all of them exist.
var DefaultCompareTypes = []string{"INFJ", "INFP", "INTP", "ENTP"}

// API configuration
const (
	AuthHeaderPrefix = "Bearer "
	APIKeyQueryParam = "api_key"
)
