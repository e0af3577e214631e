// Package transport defines the single-send boundary between the delivery
// engine and the network, and provides the production CloudEvents-over-HTTP
// implementation.
//
// Every send attempt is classified into one of four outcome classes:
// Success, Retryable (timeout, 408/429/5xx), Permanent (other 4xx) or
// Unreachable (no HTTP response at all). The engine owns all retry policy;
// a Transport never retries internally.
//
// The CloudEvents adapter posts one event per bundle via
// github.com/cloudevents/sdk-go with the bundle ID as the event ID, giving
// the ingestion endpoint a stable key to deduplicate retried sends.
// Endpoint authentication (mtls | apikey | bearer | basic) is injected
// through an http.RoundTripper built from the relay config.
package transport
