package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/cloudevents/sdk-go/v2/protocol"
	cehttp "github.com/cloudevents/sdk-go/v2/protocol/http"

	"github.com/obsidianstack/relayd/internal/config"
)

// eventType identifies a relayd telemetry bundle on the wire.
const eventType = "com.obsidianstack.relayd.bundle"

// CloudEvents posts each bundle as one CloudEvent over HTTP to the
// configured ingestion endpoint. The event ID is the bundle ID, so retried
// sends carry a stable deduplication key for the ingestion side.
type CloudEvents struct {
	client  cloudevents.Client
	target  string
	source  string
	timeout time.Duration
}

// NewCloudEvents builds the production transport from the relay config.
// Auth (mtls, apikey, bearer, basic) is applied via the HTTP round tripper.
func NewCloudEvents(cfg config.RelayConfig) (*CloudEvents, error) {
	rt, err := buildRoundTripper(cfg)
	if err != nil {
		return nil, fmt.Errorf("transport: build http transport: %w", err)
	}

	p, err := cehttp.New(cehttp.WithRoundTripper(rt))
	if err != nil {
		return nil, fmt.Errorf("transport: build protocol: %w", err)
	}
	client, err := cloudevents.NewClient(p, cloudevents.WithTimeNow())
	if err != nil {
		return nil, fmt.Errorf("transport: build client: %w", err)
	}

	source, err := os.Hostname()
	if err != nil || source == "" {
		source = "relayd"
	}

	return &CloudEvents{
		client:  client,
		target:  cfg.Endpoint,
		source:  "relayd/" + source,
		timeout: cfg.SendTimeout,
	}, nil
}

// Send posts one bundle and classifies the result. It never retries.
func (t *CloudEvents) Send(ctx context.Context, id string, payload []byte) Outcome {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	ctx = cloudevents.ContextWithTarget(ctx, t.target)

	event := cloudevents.NewEvent()
	event.SetID(id)
	event.SetType(eventType)
	event.SetSource(t.source)
	if err := event.SetData(cloudevents.ApplicationJSON, payload); err != nil {
		return PermanentFailure(fmt.Sprintf("encode event: %v", err))
	}

	return classify(t.client.Send(ctx, event))
}

// classify maps a CloudEvents protocol result onto the engine's taxonomy:
// 2xx success; 408/429/5xx retryable; other 4xx permanent; send timeout
// retryable; anything without an HTTP response (dial, DNS, TLS, connection
// reset) endpoint-unreachable.
func classify(result protocol.Result) Outcome {
	if cloudevents.IsACK(result) {
		return Succeeded()
	}

	var httpResult *cehttp.Result
	if cloudevents.ResultAs(result, &httpResult) {
		code := httpResult.StatusCode
		switch {
		case code >= 200 && code < 300:
			return Succeeded()
		case code == http.StatusRequestTimeout || code == http.StatusTooManyRequests || code >= 500:
			return RetryableFailure(fmt.Sprintf("http %d", code))
		case code >= 400:
			return PermanentFailure(fmt.Sprintf("http %d", code))
		}
	}

	if errors.Is(result, context.DeadlineExceeded) {
		return RetryableFailure("send timeout")
	}

	reason := "no response"
	if result != nil {
		reason = result.Error()
	}
	return EndpointUnreachable(reason)
}
