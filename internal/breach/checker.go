// Package breach checks passwords against a breach corpus with the
// k-anonymity range protocol: only the first five hex characters of the
// password's SHA-1 hash leave the process. The remote service answers with
// every known hash suffix sharing that prefix and the match is made locally.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/bitguard/internal/common"
	"github.com/dmitrijs2005/bitguard/internal/logging"
	"github.com/dmitrijs2005/bitguard/internal/netx"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.pwnedpasswords.com"
	DefaultTimeout = 10 * time.Second

	prefixLen = 5

	// Padded responses hold at most a few thousand lines of ~40 bytes.
	maxResponseBytes = 4 << 20
)

// Result is the outcome of one check.
type Result struct {
	Leaked     bool `json:"leaked"`
	TimesFound int  `json:"times_found"`
}

// Checker queries a range endpoint of the form {baseURL}/range/{PREFIX}.
// It keeps no state besides the HTTP client and the rate limiter and is safe
// for concurrent use.
type Checker struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	padding bool
	logger  logging.Logger
}

type Option func(*Checker)

// WithHTTPClient replaces the default client. Its Timeout is kept as given.
func WithHTTPClient(c *http.Client) Option {
	return func(ch *Checker) { ch.client = c }
}

// WithRateLimit caps outgoing range queries. A zero limit disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(ch *Checker) {
		if perSecond <= 0 {
			ch.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		ch.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithPadding toggles the Add-Padding request header, which asks the service
// to pad responses with zero-count rows so their size does not leak the prefix.
func WithPadding(on bool) Option {
	return func(ch *Checker) { ch.padding = on }
}

// New returns a Checker. A non-positive timeout falls back to DefaultTimeout;
// the upstream protocol has no timeout of its own.
func New(baseURL string, timeout time.Duration, logger logging.Logger, opts ...Option) *Checker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Checker{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		padding: true,
		logger:  logger.With("module", "breach"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HashParts returns the uppercase SHA-1 hex of password split into the
// 5-character prefix that is sent and the 35-character suffix that is not.
func HashParts(password string) (prefix, suffix string) {
	sum := sha1.Sum([]byte(password))
	h := strings.ToUpper(hex.EncodeToString(sum[:]))
	return h[:prefixLen], h[prefixLen:]
}

// Check reports whether password appears in the breach corpus. Network
// failures and non-200 responses are ErrBreachServiceUnavailable. No retry is
// attempted; the caller owns that policy.
func (c *Checker) Check(ctx context.Context, password string) (Result, error) {
	prefix, suffix := HashParts(password)

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return Result{}, fmt.Errorf("%w: rate limit: %w", common.ErrBreachServiceUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/range/"+prefix, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build range request: %w", err)
	}
	req.Header.Set("User-Agent", "bitguard")
	if c.padding {
		req.Header.Set("Add-Padding", "true")
	}

	c.logger.Debug(ctx, "range query", "prefix", prefix)

	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", common.ErrBreachServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("%w: %w", common.ErrBreachServiceUnavailable, netx.StatusError(resp, maxResponseBytes))
	}

	count, err := findSuffix(io.LimitReader(resp.Body, maxResponseBytes), suffix)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", common.ErrBreachServiceUnavailable, err)
	}
	return Result{Leaked: count > 0, TimesFound: count}, nil
}

// findSuffix scans SUFFIX:COUNT lines. Blank and malformed lines are
// skipped; padding rows carry a count of zero and therefore never match.
func findSuffix(r io.Reader, suffix string) (int, error) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		s, cnt, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(s, suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(cnt))
		if err != nil || n < 0 {
			continue
		}
		return n, nil
	}
	if err := sc.Err(); err != nil {
		return 0, fmt.Errorf("read range response: %w", err)
	}
	return 0, nil
}
