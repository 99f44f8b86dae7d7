package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/vytor/pgnvault/internal/logger"
)

// ErrTooLarge is returned by Fetch when a body exceeds the client's limit.
var ErrTooLarge = errors.New("remote source exceeds size limit")

// lichessBaseURL hosts the monthly rated standard dumps.
const lichessBaseURL = "https://database.lichess.org/standard"

// LichessMonthURL returns the URL of the lichess rated standard dump for the
// given month.
func LichessMonthURL(year, month int) string {
	return fmt.Sprintf("%s/lichess_db_standard_rated_%04d-%02d.pgn.zst", lichessBaseURL, year, month)
}

// ParseLichessMonth turns "YYYY-MM" into the matching dump URL.
func ParseLichessMonth(s string) (string, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return "", fmt.Errorf("lichess month %q: want YYYY-MM", s)
	}
	return LichessMonthURL(t.Year(), int(t.Month())), nil
}

// IsRemote reports whether path is an http or https URL.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ArchiveGame is one entry of a monthly archive payload
// ({"games":[{"url":...,"pgn":...}]}), as served by chess.com.
type ArchiveGame struct {
	URL string `json:"url"`
	PGN string `json:"pgn"`
}

// Client downloads PGN text over HTTP.
type Client struct {
	httpClient    *http.Client
	maxBytes      int64
	progressEvery int64
}

type ClientOption func(*Client)

// WithMaxBytes caps the decompressed size of a fetched body. Zero means no
// limit.
func WithMaxBytes(n int64) ClientOption {
	return func(c *Client) {
		c.maxBytes = n
	}
}

// WithProgressEvery sets how many downloaded bytes pass between progress
// log lines.
func WithProgressEvery(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.progressEvery = n
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(opts ...ClientOption) *Client {
	// Dumps take far longer than any fixed timeout; cancellation comes from ctx.
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = 30 * time.Second

	c := &Client{
		httpClient:    &http.Client{Transport: transport},
		progressEvery: 64 << 20,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultClient serves ReadAll for remote paths.
var DefaultClient = NewClient()

// Fetch downloads url and returns its PGN text. zstd bodies are decompressed
// and JSON archive payloads are flattened to their games' PGN, one blank line
// apart. Download progress is logged at info level.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	log := logger.FromContext(ctx).WithPrefix("source").WithField("url", url)
	log.Debug("fetching remote source")
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Error("failed to create request: %v", err)
		return "", err
	}
	req.Header.Set("Accept", "application/x-chess-pgn, application/json;q=0.9, */*;q=0.5")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("failed to fetch: %v", err)
		return "", err
	}
	defer resp.Body.Close()

	log.Debug("response received in %v, status=%d", time.Since(start), resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		log.Error("request failed: status=%d, body=%s", resp.StatusCode, string(body))
		return "", fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, string(body))
	}

	progress := &progressReader{r: resp.Body, total: resp.ContentLength, every: c.progressEvery, next: c.progressEvery, log: log}
	body, err := Sniff(contextReader{ctx: ctx, r: progress})
	if err != nil {
		return "", err
	}
	defer body.Close()

	var rd io.Reader = body
	if c.maxBytes > 0 {
		rd = io.LimitReader(body, c.maxBytes+1)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if mediaType == "application/json" {
		raw, err := io.ReadAll(rd)
		if err != nil {
			return "", err
		}
		if err := c.checkSize(int64(len(raw)), log); err != nil {
			return "", err
		}
		return decodeArchive(raw)
	}

	var sb strings.Builder
	n, err := io.Copy(&sb, rd)
	if err != nil {
		log.Error("failed to read after %d bytes: %v", n, err)
		return "", err
	}
	if err := c.checkSize(n, log); err != nil {
		return "", err
	}
	log.Info("fetched %d bytes (%d on the wire) in %v", n, progress.read, time.Since(start))
	return sb.String(), nil
}

func (c *Client) checkSize(n int64, log *logger.Logger) error {
	if c.maxBytes > 0 && n > c.maxBytes {
		log.Error("body exceeds %d bytes", c.maxBytes)
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, c.maxBytes)
	}
	return nil
}

// progressReader logs how much of a download has arrived.
type progressReader struct {
	r     io.Reader
	total int64
	read  int64
	every int64
	next  int64
	log   *logger.Logger
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.read += int64(n)
	if p.every > 0 && p.read >= p.next {
		if p.total > 0 {
			p.log.Info("downloaded %d of %d bytes (%.1f%%)", p.read, p.total, 100*float64(p.read)/float64(p.total))
		} else {
			p.log.Info("downloaded %d bytes", p.read)
		}
		for p.next <= p.read {
			p.next += p.every
		}
	}
	return n, err
}

func decodeArchive(raw []byte) (string, error) {
	var payload struct {
		Games []ArchiveGame `json:"games"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", fmt.Errorf("decode archive: %w", err)
	}

	texts := make([]string, 0, len(payload.Games))
	for _, g := range payload.Games {
		if pgn := strings.TrimSpace(g.PGN); pgn != "" {
			texts = append(texts, pgn)
		}
	}
	if len(texts) == 0 {
		return "", nil
	}
	return strings.Join(texts, "\n\n") + "\n", nil
}
