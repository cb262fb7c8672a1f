// Package observability provides prometheus metrics and OpenTelemetry tracing
// for renderrelay's outbound calls, inbound deliveries and batch submissions.
package observability
