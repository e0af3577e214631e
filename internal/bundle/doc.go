// Package bundle holds the shared domain types for spooled telemetry
// bundles. A bundle is one durably persisted unit of telemetry awaiting
// delivery; Ref carries its identity and delivery metadata without the
// payload bytes.
package bundle
