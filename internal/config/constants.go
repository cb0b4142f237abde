package config

import "time"

const (
	AppName    = "bdexports"
	AppVersion = "1.0.0"

	// DefaultSheetName is the report sheet carrying the 2-digit HS breakdown.
	DefaultSheetName = "2 Digit"

	DefaultSiteURL         = "https://epb.gov.bd"
	DefaultExportPageURL   = "https://epb.gov.bd/site/view/epb_export_data/-"
	DefaultUserAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	DefaultDownloadTimeout = 120 * time.Second
)

// Well-known file names inside the data directory.
const (
	MonthlyCSVName     = "monthly_export_data.csv"
	CleanedCSVName     = "monthly_export_data_cleaned.csv"
	CountriesFileName  = "unique_countries.txt"
	VerificationName   = "verification_results.csv"
	ProcessedListName  = "processed_files.txt"
	FailedListName     = "failed_files.txt"
	ReportHeaderMarker = "2 digit"
)
