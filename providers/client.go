// Package providers enthält den gemeinsamen HTTP-Client und die
// Provider-Integrationen (Entrez, NIH RePORTER) darunter.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// DefaultRetryStatuses sind die HTTP-Status, die als transient gelten:
// Rate-Limiting und Server-Unavailability.
var DefaultRetryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// RetryPolicy parametrisiert das Retry-Verhalten des Clients pro
// Provider-Integration (Statusmenge, Basis-Delay, Versuchsbudget).
type RetryPolicy struct {
	MaxAttempts   int
	BaseDelay     time.Duration
	RetryStatuses map[int]bool
}

// StatusError ist ein nicht-transienter HTTP-Fehler. Der Response-Body
// wird für die Fehlermeldung mitgenommen.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed: status %d: %s", e.StatusCode, e.Body)
}

// Client ist der gemeinsame, retry-fähige HTTP-Client für alle
// Provider-Anfragen (Suche, Detail-Fetch, Funding Awards).
type Client struct {
	httpClient *http.Client
	policy     RetryPolicy
	logger     *zap.Logger
	// sleep ist in Tests austauschbar.
	sleep func(time.Duration)
}

// NewClient erstellt einen Client mit Request-Timeout und Retry-Policy.
// Fehlende Policy-Felder werden mit Defaults aufgefüllt.
func NewClient(timeout time.Duration, policy RetryPolicy, logger *zap.Logger) *Client {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 7
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.RetryStatuses == nil {
		policy.RetryStatuses = DefaultRetryStatuses
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		policy:     policy,
		logger:     logger,
		sleep:      time.Sleep,
	}
}

// GetJSON ruft endpoint mit params auf und dekodiert die JSON-Antwort in v.
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, v any) error {
	body, err := c.do(ctx, http.MethodGet, endpoint, params, nil, "")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding JSON response from %s: %w", endpoint, err)
	}
	return nil
}

// GetXML ruft endpoint mit params auf und dekodiert die XML-Antwort in v.
func (c *Client) GetXML(ctx context.Context, endpoint string, params url.Values, v any) error {
	body, err := c.do(ctx, http.MethodGet, endpoint, params, nil, "")
	if err != nil {
		return err
	}
	if err := xml.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding XML response from %s: %w", endpoint, err)
	}
	return nil
}

// PostJSON sendet payload als JSON an endpoint und dekodiert die Antwort
// in v. NIH RePORTER ist eine POST-API.
func (c *Client) PostJSON(ctx context.Context, endpoint string, payload any, v any) error {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request payload: %w", err)
	}
	body, err := c.do(ctx, http.MethodPost, endpoint, nil, reqBody, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding JSON response from %s: %w", endpoint, err)
	}
	return nil
}

// do führt die Anfrage mit exponentiellem Backoff und multiplikativem
// Jitter aus. Verbindungs- und Timeout-Fehler sowie Status aus der
// Retry-Menge zählen gegen das Versuchsbudget; alle anderen Fehlerstatus
// brechen sofort ab.
func (c *Client) do(ctx context.Context, method, endpoint string, params url.Values, reqBody []byte, contentType string) ([]byte, error) {
	fullURL := endpoint
	if len(params) > 0 {
		fullURL = endpoint + "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt < c.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Warn("Transient provider error, retrying",
				zap.String("url", endpoint),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
			c.sleep(delay)
		}

		var bodyReader io.Reader
		if reqBody != nil {
			bodyReader = bytes.NewReader(reqBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil, err
			}
			// Verbindungsfehler und Timeouts sind transient.
			lastErr = err
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			if readErr != nil {
				lastErr = readErr
				continue
			}
			return body, nil
		}

		if c.policy.RetryStatuses[resp.StatusCode] {
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			continue
		}

		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return nil, fmt.Errorf("giving up on %s after %d attempts: %w", endpoint, c.policy.MaxAttempts, lastErr)
}

// backoff verdoppelt das Basis-Delay pro Versuch und streut um ±25%.
func (c *Client) backoff(attempt int) time.Duration {
	delay := c.policy.BaseDelay << (attempt - 1)
	jitter := 0.75 + rand.Float64()*0.5
	return time.Duration(float64(delay) * jitter)
}
