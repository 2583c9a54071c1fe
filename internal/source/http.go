package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// HTTP downloads a ledger export over HTTP(S).
type HTTP struct {
	url    string
	opts   Options
	logger zerolog.Logger
	client *http.Client
}

// NewHTTP constructs an HTTP ledger source.
func NewHTTP(url string, opts Options, logger zerolog.Logger) *HTTP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &HTTP{
		url:    url,
		opts:   opts,
		logger: logger.With().Str("component", "http_source").Logger(),
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the ledger URL.
func (h *HTTP) Name() string {
	return h.url
}

// ReadLines fetches the ledger and splits it into lines.
func (h *HTTP) ReadLines(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv, text/plain")
	if ua := strings.TrimSpace(h.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "flowscreen/1.0")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch ledger: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read ledger body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, parseHTTPError(resp.StatusCode, payload)
	}

	lines, err := decodeLines(bytes.NewReader(payload), h.opts.HasHeader)
	if err != nil {
		return nil, err
	}

	h.logger.Debug().Str("url", h.url).Int("bytes", len(payload)).Int("lines", len(lines)).Msg("ledger downloaded")
	return lines, nil
}

func parseHTTPError(status int, payload []byte) error {
	body := strings.TrimSpace(string(payload))
	if len(body) > 200 {
		body = body[:200]
	}
	if body != "" {
		return fmt.Errorf("ledger endpoint error (%d): %s", status, body)
	}
	return fmt.Errorf("ledger endpoint error (%d)", status)
}

var _ LedgerSource = (*HTTP)(nil)
