package report

// RunSummary is the JSON document describing a whole sweep run. It is
// printed to stdout when the batch finishes and doubles as the webhook
// payload.
type RunSummary struct {
	RunID      string   `json:"run_id"`
	Binary     string   `json:"binary"`
	Schema     int      `json:"schema"`
	Transforms []string `json:"transforms"`
	Images     int      `json:"images"`
	Total      int      `json:"total"`
	Success    int      `json:"success"`
	Failed     int      `json:"failed"`
	DurationMS int64    `json:"duration_ms"`
	Artifacts  []string `json:"artifacts"`

	// Webhook delivery status; only present in local output, never sent
	// to the webhook itself.
	WebhookSent  bool   `json:"webhook_sent,omitempty"`
	WebhookError string `json:"webhook_error,omitempty"`
}

// Tally counts successful and failed records.
func Tally(records []Record) (success, failed int) {
	for i := range records {
		if records[i].Failed() {
			failed++
		} else {
			success++
		}
	}
	return success, failed
}
