package catalog

import "encoding/json"

// EventBatchCompleted fires when a bulk generation job finishes.
const EventBatchCompleted = "batch.completed"

// BatchCompleted returns the built-in definition for batch.completed.
func BatchCompleted() WebhookDefinition {
	return WebhookDefinition{
		Name:        EventBatchCompleted,
		Description: "Fires when a batch of documents has finished generating.",
		Group:       "batch",
		Version:     "2025-01-15",
		Schema:      json.RawMessage(batchCompletedSchema),
		Example:     json.RawMessage(batchCompletedExample),
		OutputFields: []OutputField{
			{Key: "id", Label: "Event ID", Type: "string"},
			{Key: "type", Label: "Event Type", Type: "string"},
			{Key: "timestamp", Label: "Event Timestamp", Type: "datetime"},
			{Key: "data__batchId", Label: "Batch ID", Type: "string"},
			{Key: "data__templateId", Label: "Template ID", Type: "string"},
			{Key: "data__templateName", Label: "Template Name", Type: "string"},
			{Key: "data__totalDocuments", Label: "Total Documents", Type: "integer"},
			{Key: "data__successCount", Label: "Success Count", Type: "integer"},
			{Key: "data__failureCount", Label: "Failure Count", Type: "integer"},
			{Key: "data__format", Label: "Format", Type: "string"},
			{Key: "data__status", Label: "Status", Type: "string"},
			{Key: "data__downloadUrl", Label: "Download URL (ZIP)", Type: "string"},
			{Key: "data__completedAt", Label: "Completed At", Type: "datetime"},
		},
	}
}

const batchCompletedSchema = `{
  "type": "object",
  "required": ["batchId", "templateId", "totalDocuments", "successCount", "failureCount", "format", "status"],
  "properties": {
    "batchId":        {"type": "string"},
    "templateId":     {"type": "string"},
    "templateName":   {"type": "string"},
    "totalDocuments": {"type": "integer", "minimum": 0},
    "successCount":   {"type": "integer", "minimum": 0},
    "failureCount":   {"type": "integer", "minimum": 0},
    "format":         {"type": "string", "enum": ["pdf", "excel"]},
    "status":         {"type": "string"},
    "downloadUrl":    {"type": ["string", "null"]},
    "completedAt":    {"type": ["string", "null"]}
  }
}`

const batchCompletedExample = `{
  "id": "evt_sample_123",
  "type": "batch.completed",
  "timestamp": "2025-01-15T10:30:00Z",
  "data": {
    "batchId": "batch_abc123",
    "templateId": "template_xyz789",
    "templateName": "Invoice Template",
    "totalDocuments": 10,
    "successCount": 9,
    "failureCount": 1,
    "format": "pdf",
    "status": "completed",
    "downloadUrl": "https://api.renderbase.dev/v1/batches/batch_abc123/download",
    "completedAt": "2025-01-15T10:30:00Z"
  }
}`
