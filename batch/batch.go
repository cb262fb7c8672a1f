// Package batch submits bulk document generation requests.
//
// A submission is exactly one remote call regardless of how many documents
// it describes. The returned Job is the remote service's state at acceptance
// time; completion is reported later through the batch.completed webhook.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/xraph/renderrelay/gateway"
	"github.com/xraph/renderrelay/id"
	"github.com/xraph/renderrelay/lookup"
	"github.com/xraph/renderrelay/observability"
)

// Job statuses reported by the document service.
const (
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Request describes one bulk generation.
type Request struct {
	// TemplateID selects the template. Required.
	TemplateID string

	// Format defaults to pdf.
	Format lookup.Format

	// TeamID optionally scopes the batch to a team.
	TeamID string

	// VariableSets holds one variable map per document. Must be non-empty.
	VariableSets []map[string]any
}

// Job is the remote record of a submitted batch.
type Job struct {
	ID             string        `json:"id"`
	Status         string        `json:"status"`
	TemplateID     string        `json:"templateId"`
	Format         lookup.Format `json:"format"`
	TotalDocuments int           `json:"totalDocuments"`
	SuccessCount   int           `json:"successCount"`
	FailureCount   int           `json:"failureCount"`
	DownloadURL    *string       `json:"downloadUrl"`
	CreatedAt      string        `json:"createdAt"`
	CompletedAt    *string       `json:"completedAt"`
}

// ValidationError reports an unusable Request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("batch: %s: %s", e.Field, e.Message)
}

// Config holds the remote path of the batch collection.
type Config struct {
	BatchesPath string
}

// Orchestrator submits batches through the gateway.
type Orchestrator struct {
	client  gateway.Doer
	path    string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator. An empty BatchesPath defaults to
// "/batches".
func NewOrchestrator(client gateway.Doer, cfg Config, metrics *observability.Metrics, logger *slog.Logger) *Orchestrator {
	if cfg.BatchesPath == "" {
		cfg.BatchesPath = "/batches"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{client: client, path: cfg.BatchesPath, metrics: metrics, logger: logger}
}

type generateBody struct {
	TemplateID   string           `json:"templateId"`
	Format       lookup.Format    `json:"format"`
	VariableSets []map[string]any `json:"variableSets"`
	TeamID       string           `json:"teamId,omitempty"`
}

// Submit validates req and issues a single generation call. Remote failures
// are returned as *gateway.Error and never retried.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (*Job, error) {
	if err := req.normalize(); err != nil {
		return nil, err
	}

	key := id.NewIdempotencyKey()
	var job Job
	err := o.client.Do(ctx, gateway.Request{
		Op:     "batches.generate",
		Method: http.MethodPost,
		Path:   o.path + "/generate",
		Body: generateBody{
			TemplateID:   req.TemplateID,
			Format:       req.Format,
			VariableSets: req.VariableSets,
			TeamID:       req.TeamID,
		},
		Header: http.Header{"Idempotency-Key": {key.String()}},
	}, &job)
	if err != nil {
		o.logger.WarnContext(ctx, "batch submission failed",
			"template_id", req.TemplateID, "documents", len(req.VariableSets), "error", err)
		return nil, err
	}

	o.metrics.RecordBatch(len(req.VariableSets))
	o.logger.DebugContext(ctx, "batch submitted",
		"batch_id", job.ID, "template_id", req.TemplateID, "documents", len(req.VariableSets), "status", job.Status)
	return &job, nil
}

func (r *Request) normalize() error {
	if r.TemplateID == "" {
		return &ValidationError{Field: "templateId", Message: "is required"}
	}
	if r.Format == "" {
		r.Format = lookup.FormatPDF
	}
	if !r.Format.Valid() {
		return &ValidationError{Field: "format", Message: fmt.Sprintf("must be pdf or excel, got %q", r.Format)}
	}
	if len(r.VariableSets) == 0 {
		return &ValidationError{Field: "variableSets", Message: "at least one variable set is required"}
	}
	for i, set := range r.VariableSets {
		if set == nil {
			return &ValidationError{Field: fmt.Sprintf("variableSets[%d]", i), Message: "must be an object"}
		}
	}
	return nil
}
