package civicgov

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/codes"
)

var ErrNoEndpoint = fmt.Errorf("no candidate search endpoint accepted by this deployment")

// CandidatePaths are the search endpoint layouts observed across
// deployments, most common first. The prober tries them in this order.
var CandidatePaths = []string{
	"/api/energov/search/search",
	"/energov/api/search/search",
	"/api/search/search",
	"/prod/api/energov/search/search",
	"/selfservice/api/energov/search/search",
	"/apps/selfservice/api/energov/search/search",
}

// statuses that mean "the path exists but the probe body displeased it".
func pathExistsStatus(code int) bool {
	switch code {
	case 400, 405, 422, 500:
		return true
	}
	return code >= 200 && code < 300
}

// htmlErrorTitle sniffs whether a body is a vendor HTML error page rather
// than an API response, returning its title when it is.
func htmlErrorTitle(body []byte) (string, bool) {
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if !bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<!doctype")) &&
		!bytes.HasPrefix(bytes.ToLower(trimmed), []byte("<html")) {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", true
	}
	return strings.TrimSpace(doc.Find("title").Text()), true
}

// Probe issues a minimal one-record search against a single candidate path
// and reports whether the path appears to be served. No retries, no
// rotation: discovery failures should surface fast.
func (c *Client) Probe(ctx context.Context, path string, category Category) (bool, error) {
	ctx, span := tracer.Start(ctx, "client:Probe")
	defer span.End()

	req := NewSearchRequest(category, KeywordCriteria("", 1, 1))
	res, err := c.direct.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(req).
		Post(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "probe transport failure")
		return false, err
	}

	if title, isHtml := htmlErrorTitle(res.Body()); isHtml {
		slog.DebugContext(
			ctx, "candidate path served an html page",
			"path", path,
			"status", res.StatusCode(),
			"title", title,
		)
		return false, nil
	}

	return pathExistsStatus(res.StatusCode()), nil
}

// Discover walks the candidate paths (each joined onto the deployment's
// api prefix, which may be empty) and returns the first one the deployment
// accepts. The caller persists the discovered path via the checkpoint,
// discovery itself has no side effects beyond network calls.
func (c *Client) Discover(ctx context.Context, prefix string, category Category) (string, error) {
	ctx, span := tracer.Start(ctx, "client:Discover")
	defer span.End()

	for _, candidate := range CandidatePaths {
		path := strings.TrimSuffix(prefix, "/") + candidate
		ok, err := c.Probe(ctx, path, category)
		if err != nil {
			slog.WarnContext(ctx, "probe failed", "path", path, "err", err)
			continue
		}
		if ok {
			slog.InfoContext(ctx, "discovered search endpoint", "path", path)
			return path, nil
		}
	}

	span.SetStatus(codes.Error, ErrNoEndpoint.Error())
	return "", ErrNoEndpoint
}
