package metrics

import (
	"strconv"
	"time"
)

// RecordChatMessage records the outcome of a proxied chat message.
// Result should be one of "success", "invalid" or "upstream_error".
func RecordChatMessage(result string) {
	ChatMessagesTotal.WithLabelValues(result).Inc()
}

// RecordWebhookCall records one round trip to the conversational webhook.
// A zero status means the request never produced a response.
//
// Example:
//
//	start := time.Now()
//	resp, err := client.Do(req)
//	status := 0
//	if err == nil {
//	    status = resp.StatusCode
//	}
//	RecordWebhookCall(status, time.Since(start))
func RecordWebhookCall(status int, duration time.Duration) {
	label := "none"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	WebhookDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordClassification records the content kind a URL was classified as.
func RecordClassification(kind string) {
	PreviewClassificationsTotal.WithLabelValues(kind).Inc()
}

// RecordPreviewResolution records a preview reaching a terminal view.
func RecordPreviewResolution(kind, mode string) {
	PreviewResolutionsTotal.WithLabelValues(kind, mode).Inc()
}

// RecordStalePreviewResult records a task result dropped because a newer
// preview replaced the one that started it.
func RecordStalePreviewResult() {
	PreviewStaleResultsTotal.Inc()
}

// RecordProbe records the result of an embeddability probe.
//
// Parameters:
//   - result: success, error, timeout or canceled
//   - duration: Time until the probe resolved
func RecordProbe(result string, duration time.Duration) {
	EmbedProbesTotal.WithLabelValues(result).Inc()
	EmbedProbeDuration.Observe(duration.Seconds())
}

// RecordMetadataSuccess records a metadata fetch that produced a parsed record.
//
// Parameters:
//   - source: Name of the metadata source (relay, direct)
//   - duration: Time taken to fetch and parse the page
//
// Example:
//
//	start := time.Now()
//	md, err := source.Fetch(ctx, url)
//	if err == nil {
//	    RecordMetadataSuccess("relay", time.Since(start))
//	}
func RecordMetadataSuccess(source string, duration time.Duration) {
	MetadataResolutionsTotal.WithLabelValues(source, "success").Inc()
	MetadataFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordMetadataFallback records a resolution that fell back to the
// domain-only record.
func RecordMetadataFallback(source string, duration time.Duration) {
	MetadataResolutionsTotal.WithLabelValues(source, "fallback").Inc()
	MetadataFetchDuration.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordMetadataCacheHit records a resolution served from the cache.
func RecordMetadataCacheHit(source string) {
	MetadataResolutionsTotal.WithLabelValues(source, "cache_hit").Inc()
}

// RecordPageCacheHit records a page fetch served from the cache.
func RecordPageCacheHit() {
	PageCacheHitsTotal.Inc()
}

// RecordPageFetchSize records the size of a fetched page body.
func RecordPageFetchSize(size int) {
	PageFetchSize.Observe(float64(size))
}
