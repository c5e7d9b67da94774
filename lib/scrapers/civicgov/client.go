package civicgov

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"civicsearch-backend/lib/proxyring"
	"civicsearch-backend/lib/restyutil"
	"civicsearch-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("scrapers/civicgov")

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// HttpStatusError reports a terminal non-2xx response after retries are
// exhausted (or for statuses that are never retried).
type HttpStatusError struct {
	StatusCode int
}

func (e HttpStatusError) Error() string {
	return fmt.Sprintf("search endpoint returned status %d", e.StatusCode)
}

type ClientOptions struct {
	BaseUrl string
	// nil or empty ring means direct egress
	Ring *proxyring.Ring
	// first 429 retry sleeps RetryBase, doubling each retry up to RetryCap
	RetryBase time.Duration
	RetryCap  time.Duration
	// attempts per Search call before giving up
	MaxAttempts int
	// consecutive 403s across the whole ring before the cooldown kicks in
	BlockThreshold int64
	// how long to sleep once the ring is considered exhausted
	PoolCooldown time.Duration
	// fixed sleep between retries of transport-level failures
	TransportRetryDelay time.Duration

	// overridable in tests; defaults to a ctx-aware sleep
	Sleep func(ctx context.Context, d time.Duration) error
}

func (o *ClientOptions) fillDefaults() {
	if o.RetryBase <= 0 {
		o.RetryBase = time.Second * 5
	}
	if o.RetryCap <= 0 {
		o.RetryCap = time.Minute * 2
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BlockThreshold <= 0 {
		o.BlockThreshold = 10
	}
	if o.PoolCooldown <= 0 {
		o.PoolCooldown = time.Minute * 10
	}
	if o.TransportRetryDelay <= 0 {
		o.TransportRetryDelay = time.Second * 2
	}
	if o.Sleep == nil {
		o.Sleep = sleepCtx
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Client executes search calls against one deployment, rotating egress
// through the shared proxy ring. Safe for concurrent use: the only
// cross-call state lives in the ring's atomics.
type Client struct {
	BaseUrl *url.URL

	opts ClientOptions
	ring *proxyring.Ring
	// index-aligned with ring.Proxies(); direct is used for an empty ring
	perProxy []*resty.Client
	direct   *resty.Client
}

func NewClient(opts ClientOptions) (*Client, error) {
	opts.fillDefaults()

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}

	c := &Client{
		BaseUrl: baseUrl,
		opts:    opts,
		ring:    opts.Ring,
	}

	c.direct, err = newResty(opts.BaseUrl, nil)
	if err != nil {
		return nil, err
	}
	if opts.Ring != nil {
		for _, p := range opts.Ring.Proxies() {
			transport, err := p.Transport()
			if err != nil {
				return nil, err
			}
			client, err := newResty(opts.BaseUrl, transport)
			if err != nil {
				return nil, err
			}
			c.perProxy = append(c.perProxy, client)
		}
	}

	return c, nil
}

func newResty(baseUrl string, transport http.RoundTripper) (*resty.Client, error) {
	client := resty.New()
	client.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	if transport == nil {
		transport = client.GetClient().Transport
	}
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(transport)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/civicgov/http")
	return client, nil
}

// SetInstrumentOutput enables HTTP message dumps for debugging. Applies to
// every egress client.
func (c *Client) SetInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.direct, tracer, output)
	for _, client := range c.perProxy {
		restyutil.InstrumentClient(client, tracer, output)
	}
}

// next rotates the ring and returns the resty client for the selected
// egress address.
func (c *Client) next() *resty.Client {
	if c.ring == nil || c.ring.Len() == 0 {
		return c.direct
	}
	return c.perProxy[c.ring.NextIndex()]
}

func backoffDelay(base, limit time.Duration, attempt int) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

// Search posts one page query to the given endpoint path and decodes the
// response envelope. Rate limiting, blocking and transport failures are
// retried here; everything escaping this method is terminal for the page.
func (c *Client) Search(ctx context.Context, path string, req SearchRequest) (Page, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < c.opts.MaxAttempts; attempt++ {
		res, err := c.next().R().
			SetContext(ctx).
			SetHeader("content-type", "application/json").
			SetBody(req).
			Post(path)
		if err != nil {
			lastErr = err
			slog.WarnContext(
				ctx, "search transport failure",
				"path", path,
				"attempt", attempt,
				"err", err,
			)
			if serr := c.opts.Sleep(ctx, c.opts.TransportRetryDelay); serr != nil {
				return Page{}, serr
			}
			continue
		}

		switch {
		case res.StatusCode() >= 200 && res.StatusCode() < 300:
			if c.ring != nil {
				c.ring.RecordSuccess()
			}
			page, err := DecodeEnvelope(res.Body())
			if err != nil {
				return Page{}, err
			}
			return page, nil

		case res.StatusCode() == 429:
			if c.ring != nil {
				c.ring.RecordFailure()
			}
			delay := backoffDelay(c.opts.RetryBase, c.opts.RetryCap, attempt)
			slog.WarnContext(
				ctx, "rate limited",
				"path", path,
				"attempt", attempt,
				"sleep", delay,
			)
			lastErr = HttpStatusError{StatusCode: 429}
			if serr := c.opts.Sleep(ctx, delay); serr != nil {
				return Page{}, serr
			}

		case res.StatusCode() == 403:
			lastErr = HttpStatusError{StatusCode: 403}
			if c.ring != nil {
				failures := c.ring.RecordFailure()
				if failures >= c.opts.BlockThreshold {
					slog.WarnContext(
						ctx, "proxy ring exhausted, cooling down",
						"path", path,
						"consecutive_failures", failures,
						"cooldown", c.opts.PoolCooldown,
					)
					if serr := c.opts.Sleep(ctx, c.opts.PoolCooldown); serr != nil {
						return Page{}, serr
					}
					c.ring.ResetFailures()
					continue
				}
			}
			delay := backoffDelay(c.opts.RetryBase, c.opts.RetryCap, attempt)
			slog.WarnContext(
				ctx, "blocked, rotating egress",
				"path", path,
				"attempt", attempt,
				"sleep", delay,
			)
			if serr := c.opts.Sleep(ctx, delay); serr != nil {
				return Page{}, serr
			}

		default:
			// 4xx/5xx outside the retry taxonomy is terminal for the page
			return Page{}, HttpStatusError{StatusCode: res.StatusCode()}
		}
	}

	return Page{}, fmt.Errorf("search attempts exhausted: %w", lastErr)
}
