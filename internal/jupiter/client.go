package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Client issues single quote requests against the Jupiter quote API. All
// requests, including retries and the max-liquidity search's probes, pass
// through the shared Pacer.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	pacer      *Pacer
	maxRetries int
	backoff    time.Duration
	logger     *logrus.Logger
}

// ClientConfig holds configuration for the quote client.
type ClientConfig struct {
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	MaxRetries     int           // retries on rate limiting and transport failures
	RetryBackoff   time.Duration // base delay, doubled per attempt
	PacingInterval time.Duration
	Logger         *logrus.Logger
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.jup.ag/swap/v1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.PacingInterval <= 0 {
		cfg.PacingInterval = 1100 * time.Millisecond
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pacer:      NewPacer(cfg.PacingInterval),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.RetryBackoff,
		logger:     cfg.Logger,
	}
}

// Pacer exposes the shared pacing gate for diagnostics.
func (c *Client) Pacer() *Pacer {
	return c.pacer
}

// Quote requests a single quote. Rate-limited and transport failures are
// retried with exponential backoff up to MaxRetries; NoRoute and Invalid are
// surfaced immediately as a *QuoteError, since retrying an unroutable amount
// or a malformed request only wastes the caller's time budget.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if strings.TrimSpace(req.InputMint) == "" {
		return nil, &QuoteError{Kind: KindInvalid, Message: "inputMint is required"}
	}
	if strings.TrimSpace(req.OutputMint) == "" {
		return nil, &QuoteError{Kind: KindInvalid, Message: "outputMint is required"}
	}
	if req.Amount == 0 {
		return nil, &QuoteError{Kind: KindInvalid, Message: "amount must be positive"}
	}

	reqURL := c.buildURL(req)

	var lastErr *QuoteError
	backoff := c.backoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			wait := backoff
			if lastErr != nil && lastErr.RetryAfter > wait {
				wait = lastErr.RetryAfter
			}
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": wait,
				"amount":  req.Amount,
			}).Debug("retrying failed quote")

			select {
			case <-ctx.Done():
				return nil, &QuoteError{Kind: KindTransport, Message: ctx.Err().Error()}
			case <-time.After(wait):
			}
			backoff *= 2
		}

		if err := c.pacer.Wait(ctx); err != nil {
			return nil, &QuoteError{Kind: KindTransport, Message: err.Error()}
		}

		out, qerr := c.doQuote(ctx, reqURL)
		if qerr == nil {
			return out, nil
		}
		if qerr.Kind != KindRateLimited && qerr.Kind != KindTransport {
			return nil, qerr
		}
		lastErr = qerr
	}

	return nil, lastErr
}

func (c *Client) buildURL(req QuoteRequest) string {
	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", strconv.FormatUint(req.Amount, 10))

	if req.SlippageBps > 0 {
		q.Set("slippageBps", strconv.FormatUint(uint64(req.SlippageBps), 10))
	}
	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if req.RestrictIntermediateTokens != nil {
		q.Set("restrictIntermediateTokens", strconv.FormatBool(*req.RestrictIntermediateTokens))
	}
	if req.OnlyDirectRoutes != nil {
		q.Set("onlyDirectRoutes", strconv.FormatBool(*req.OnlyDirectRoutes))
	}

	return c.baseURL + "/quote?" + q.Encode()
}

func (c *Client) doQuote(ctx context.Context, reqURL string) (*QuoteResponse, *QuoteError) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &QuoteError{Kind: KindInvalid, Message: err.Error()}
	}
	httpReq.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &QuoteError{Kind: KindTransport, Message: err.Error()}
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, classifyHTTP(res.StatusCode, body, parseRetryAfter(res.Header.Get("Retry-After")))
	}

	var out QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &QuoteError{
			Kind:       KindInvalid,
			HTTPStatus: res.StatusCode,
			Message:    fmt.Sprintf("failed to decode quote response: %v", err),
		}
	}
	if out.InAmount == "" || out.OutAmount == "" {
		return nil, &QuoteError{
			Kind:       KindInvalid,
			HTTPStatus: res.StatusCode,
			Message:    "quote response missing inAmount/outAmount",
		}
	}
	return &out, nil
}

func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}
