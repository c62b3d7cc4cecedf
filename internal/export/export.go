// Package export ships completed analysis results to an external webhook
// in batches, for downstream dashboards and alerting.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"github.com/Clish254/sol-dex-pools/internal/pipeline"
)

// Config holds configuration for the webhook exporter.
type Config struct {
	Enabled   bool          `json:"enabled"`
	BatchSize int           `json:"batch_size"`
	Interval  time.Duration `json:"interval"`
	URL       string        `json:"url"`
	APIKey    string        `json:"api_key,omitempty"`
}

// entry is one exported analysis outcome.
type entry struct {
	Pair       string          `json:"pair"`
	Result     pipeline.Result `json:"result"`
	AnalyzedAt string          `json:"analyzed_at"`
}

// Exporter batches analysis results and posts them to a webhook, either
// when the batch fills or on a timer. Export failures are logged and the
// batch dropped; the analysis path never blocks on the webhook.
type Exporter struct {
	config     Config
	httpClient *http.Client

	mutex      sync.Mutex
	batch      []entry
	lastExport time.Time

	cancel context.CancelFunc
}

// New creates an Exporter. A disabled exporter accepts results and
// discards them.
func New(config Config) *Exporter {
	e := &Exporter{config: config}
	if !config.Enabled {
		return e
	}

	if e.config.BatchSize <= 0 {
		e.config.BatchSize = 50
	}
	if e.config.Interval <= 0 {
		e.config.Interval = time.Minute
	}

	// Webhook delivery is off the request path, so retries are fine here.
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	e.httpClient = rc.StandardClient()
	e.batch = make([]entry, 0, e.config.BatchSize)

	var ctx context.Context
	ctx, e.cancel = context.WithCancel(context.Background())
	go e.periodicExport(ctx)

	logrus.Info("Webhook exporter initialized")
	return e
}

// Add queues one analysis result for export. When the batch fills it is
// flushed in the background.
func (e *Exporter) Add(pair string, result pipeline.Result) {
	if !e.config.Enabled {
		return
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.batch = append(e.batch, entry{
		Pair:       pair,
		Result:     result,
		AnalyzedAt: time.Now().UTC().Format(time.RFC3339),
	})

	if len(e.batch) >= e.config.BatchSize {
		go e.export()
	}
}

func (e *Exporter) periodicExport(ctx context.Context) {
	ticker := time.NewTicker(e.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.export()
		case <-ctx.Done():
			return
		}
	}
}

// export drains the current batch and posts it.
func (e *Exporter) export() {
	e.mutex.Lock()
	if len(e.batch) == 0 {
		e.mutex.Unlock()
		return
	}
	entries := e.batch
	e.batch = make([]entry, 0, e.config.BatchSize)
	e.lastExport = time.Now()
	e.mutex.Unlock()

	if err := e.post(entries); err != nil {
		logrus.Errorf("Failed to export %d results to webhook: %v", len(entries), err)
		return
	}
	logrus.Infof("Exported %d analysis results", len(entries))
}

func (e *Exporter) post(entries []entry) error {
	if e.config.URL == "" {
		return fmt.Errorf("webhook URL not configured")
	}

	payload := struct {
		Results    []entry `json:"results"`
		ExportTime string  `json:"export_time"`
		Count      int     `json:"count"`
	}{
		Results:    entries,
		ExportTime: time.Now().UTC().Format(time.RFC3339),
		Count:      len(entries),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, e.config.URL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.config.APIKey)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned error status: %d", resp.StatusCode)
	}
	return nil
}

// Stop halts the periodic flush and exports anything still batched.
func (e *Exporter) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.export()
}

// Status reports the exporter's current state for the status endpoint.
func (e *Exporter) Status() map[string]interface{} {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	status := map[string]interface{}{
		"enabled":       e.config.Enabled,
		"batch_size":    e.config.BatchSize,
		"interval":      e.config.Interval.String(),
		"current_batch": len(e.batch),
	}
	if !e.lastExport.IsZero() {
		status["last_export"] = e.lastExport.Format(time.RFC3339)
	}
	return status
}
