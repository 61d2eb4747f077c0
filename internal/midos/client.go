// Package midos talks to the Midos House GraphQL API and caches the list of
// standard tournament goals it manages.
package midos

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pable/go-restream-stats/internal/logging"
)

// Client is a minimal Midos House GraphQL client.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter
	log      logrus.FieldLogger
}

// NewClient returns a client for the GraphQL endpoint that issues at most
// requestsPerMinute requests per minute. A nil log discards output.
func NewClient(endpoint string, requestsPerMinute int, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(float64(requestsPerMinute)/60.0), 1),
		log:      log,
	}
}

type graphQLError struct {
	Message string `json:"message"`
}

// query runs a GraphQL query via GET and decodes its data field into out.
func (c *Client) query(ctx context.Context, q string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.endpoint + "?" + url.Values{"query": {q}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graphql %s: %w", q, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("graphql %s: read body: %w", q, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql %s: HTTP %d: %s", q, resp.StatusCode, truncate(body, 200))
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []graphQLError  `json:"errors"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("graphql %s: decode: %w", q, err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, len(envelope.Errors))
		for i, e := range envelope.Errors {
			msgs[i] = e.Message
		}
		return fmt.Errorf("graphql %s: %s", q, strings.Join(msgs, "; "))
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("graphql %s: empty data", q)
	}
	return json.Unmarshal(envelope.Data, out)
}

// GoalNames returns every goal name Midos House manages, unfiltered.
func (c *Client) GoalNames(ctx context.Context) ([]string, error) {
	var data struct {
		GoalNames []string `json:"goalNames"`
	}
	if err := c.query(ctx, "{goalNames}", &data); err != nil {
		return nil, err
	}
	c.log.WithField("count", len(data.GoalNames)).Debug("fetched goal names")
	return data.GoalNames, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
