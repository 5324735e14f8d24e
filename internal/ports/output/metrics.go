package output

import "time"

// MetricsCollector defines the secondary port for metrics collection.
type MetricsCollector interface {
	// IncSearchRequests increments the search request counter.
	IncSearchRequests(success bool)

	// SetSearchHits records the hit count of the last search.
	SetSearchHits(hits int)

	// IncDownloads increments the download counter for a status.
	IncDownloads(status string)

	// AddDownloadedBytes adds to the downloaded byte counter.
	AddDownloadedBytes(n int64)

	// ObserveDownloadDuration records a single file download duration.
	ObserveDownloadDuration(duration time.Duration)

	// IncStorageOperations increments storage operation counter.
	IncStorageOperations(operation string, success bool)

	// ObserveStorageDuration records storage operation duration.
	ObserveStorageDuration(operation string, duration time.Duration)
}

// NoOpMetrics is a no-op implementation of MetricsCollector.
type NoOpMetrics struct{}

// IncSearchRequests implements MetricsCollector.
func (n *NoOpMetrics) IncSearchRequests(_ bool) {}

// SetSearchHits implements MetricsCollector.
func (n *NoOpMetrics) SetSearchHits(_ int) {}

// IncDownloads implements MetricsCollector.
func (n *NoOpMetrics) IncDownloads(_ string) {}

// AddDownloadedBytes implements MetricsCollector.
func (n *NoOpMetrics) AddDownloadedBytes(_ int64) {}

// ObserveDownloadDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveDownloadDuration(_ time.Duration) {}

// IncStorageOperations implements MetricsCollector.
func (n *NoOpMetrics) IncStorageOperations(_ string, _ bool) {}

// ObserveStorageDuration implements MetricsCollector.
func (n *NoOpMetrics) ObserveStorageDuration(_ string, _ time.Duration) {}
