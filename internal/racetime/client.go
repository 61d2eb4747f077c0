// Package racetime provides a minimal client for the racetime.gg public
// data endpoints.
package racetime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/pable/go-restream-stats/internal/logging"
)

// ErrNotFound is returned when racetime.gg answers 404.
var ErrNotFound = errors.New("racetime: not found")

// Client is a rate-limited racetime.gg client.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger
}

// NewClient returns a client for baseURL that issues at most
// requestsPerMinute requests per minute. A nil log discards output.
func NewClient(baseURL string, requestsPerMinute int, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logging.Discard()
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		log:     log,
	}
}

// get performs a rate-limited GET against path and JSON-decodes the body
// into out. Gzip-encoded responses are decompressed transparently.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return fmt.Errorf("GET %s: gzip: %w", path, err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	c.log.WithFields(logrus.Fields{
		"path":    path,
		"status":  resp.StatusCode,
		"bytes":   len(data),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Debug("racetime request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("GET %s: %w", path, ErrNotFound)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("GET %s: HTTP %d: %s", path, resp.StatusCode, truncate(data, 200))
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

// GetUser fetches a user's public profile by racetime.gg user ID.
func (c *Client) GetUser(ctx context.Context, id string) (*User, error) {
	var u User
	if err := c.get(ctx, "/user/"+url.PathEscape(id)+"/data", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UserRaces returns every race the user has entered, walking all result
// pages in order.
func (c *Client) UserRaces(ctx context.Context, user *User) ([]Race, error) {
	if user == nil || user.URL == "" {
		return nil, errors.New("racetime: user has no profile URL")
	}
	var races []Race
	for page, numPages := 1, 1; page <= numPages; page++ {
		var resp racesPage
		path := user.URL + "/races/data?show_entrants=1&page=" + strconv.Itoa(page)
		if err := c.get(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("races of %s page %d: %w", user.ID, page, err)
		}
		numPages = resp.NumPages
		races = append(races, resp.Races...)
		c.log.WithFields(logrus.Fields{
			"user":  user.ID,
			"page":  page,
			"pages": numPages,
			"races": len(resp.Races),
		}).Debug("fetched race page")
	}
	return races, nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
