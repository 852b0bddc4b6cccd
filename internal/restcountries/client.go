// Package restcountries fetches raw country records from the REST Countries API.
package restcountries

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hpungsan/langroutes/internal/config"
	"github.com/hpungsan/langroutes/internal/country"
	"github.com/hpungsan/langroutes/internal/errors"
)

// Client fetches countries by language from a REST Countries v3.1 endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Logger  *zap.Logger
}

// New creates a Client from cfg. A nil logger disables logging.
func New(cfg *config.Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Logger:  logger,
	}
}

// FetchByLanguage returns the raw records for language, which the caller has
// already trimmed and lowercased.
//
// Any non-2xx status, or a body that is not a JSON array, yields an empty
// result and a nil error. Only failures that happen before a status is
// received (DNS, refused connection, timeout, cancellation) return an
// error, coded TRANSPORT_FAILURE.
func (c *Client) FetchByLanguage(ctx context.Context, language string) ([]country.RawRecord, error) {
	endpoint := fmt.Sprintf("%s/lang/%s", c.BaseURL, url.PathEscape(language))
	log := c.logger().With(zap.String("language", language))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient().Do(req)
	if err != nil {
		log.Warn("countries request failed", zap.Error(err))
		return nil, errors.NewTransportFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Warn("countries request returned non-success status", zap.Int("status", resp.StatusCode))
		return nil, nil
	}

	var records []country.RawRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		log.Warn("countries response is not a JSON array", zap.Error(err))
		return nil, nil
	}

	log.Debug("fetched countries",
		zap.Int("status", resp.StatusCode),
		zap.Int("count", len(records)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return records, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
