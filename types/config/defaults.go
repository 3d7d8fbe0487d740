package config

import "time"

const (
	DefaultPollInterval     = 5 * time.Minute
	DefaultWorkerCount      = 1
	DefaultBatchSize        = 100
	DefaultExecutionTimeout = 2 * time.Minute
	DefaultClaimStaleAfter  = 30 * time.Minute
	DefaultHistoryRetention = 90 * 24 * time.Hour
	DefaultJanitorSpec      = "@daily"
	DefaultLogLevel         = "info"
	DefaultNotifyRatePerSec = 20
)
