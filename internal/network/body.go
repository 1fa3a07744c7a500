package network

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/brennhill/gasoline-page-agent/internal/bridge"
	"github.com/brennhill/gasoline-page-agent/internal/concurrency"
	"github.com/brennhill/gasoline-page-agent/internal/config"
	"github.com/brennhill/gasoline-page-agent/internal/hostenv"
	"github.com/brennhill/gasoline-page-agent/internal/util"
)

var binaryContentType = regexp.MustCompile(`(?i)^(image|video|audio|font)/|^application/(wasm|octet-stream|zip|gzip|pdf)`)

// BodyPayload is the TypeNetworkBody envelope payload (§4.9). RequestFormat/
// ResponseFormat are an additive SPEC_FULL.md supplement: a best-guess
// binary-format name (protobuf/messagepack/cbor/bson) tagged onto an
// already-rendered "[Binary: ...]" body, never replacing it.
type BodyPayload struct {
	URL              string            `json:"url"`
	Method           string            `json:"method"`
	Status           int               `json:"status"`
	RequestHeaders   map[string]string `json:"requestHeaders,omitempty"`
	ResponseHeaders  map[string]string `json:"responseHeaders,omitempty"`
	RequestBody      string            `json:"requestBody,omitempty"`
	ResponseBody     string            `json:"responseBody,omitempty"`
	RequestTruncated bool              `json:"requestTruncated,omitempty"`
	RespTruncated    bool              `json:"responseTruncated,omitempty"`
	RequestFormat    string            `json:"requestBodyFormat,omitempty"`
	ResponseFormat   string            `json:"responseBodyFormat,omitempty"`
	Ts               string            `json:"ts"`
}

// BodyWrapper wraps a host Fetcher, capturing request/response bodies per
// §4.9 before posting them to the bridge. The original fetch behavior
// (status, headers, body delivered to the caller) is never altered by
// capture — capture failures are swallowed, never surfaced.
type BodyWrapper struct {
	fetch   hostenv.Fetcher
	br      *bridge.Bridge
	clock   hostenv.Clock
	limits  *config.Limits
	skipURL func(url string) bool
}

// NewBodyWrapper builds a BodyWrapper. skipURL reports whether the given
// URL matches the configured server (or the localhost:7890/127.0.0.1:7890
// fallback) or begins with chrome-extension://, in which case capture is
// skipped entirely and the call is delegated directly.
func NewBodyWrapper(fetch hostenv.Fetcher, br *bridge.Bridge, clock hostenv.Clock, limits *config.Limits, skipURL func(url string) bool) *BodyWrapper {
	return &BodyWrapper{fetch: fetch, br: br, clock: clock, limits: limits, skipURL: skipURL}
}

// Fetch performs the wrapped fetch. The original Response is returned to
// the caller as soon as the round trip completes; body capture/posting
// happens asynchronously and never blocks or alters the returned value.
func (w *BodyWrapper) Fetch(ctx context.Context, req hostenv.FetchRequest) (hostenv.FetchResponse, error) {
	resp, err := w.fetch.Fetch(ctx, req)
	if err != nil {
		return resp, err
	}
	if w.skipURL != nil && w.skipURL(req.URL) {
		return resp, nil
	}
	util.SafeGo(func() { w.capture(req, resp) })
	return resp, nil
}

func (w *BodyWrapper) capture(req hostenv.FetchRequest, resp hostenv.FetchResponse) {
	sensitive := w.limits.SensitiveURLRegex != nil && w.limits.SensitiveURLRegex.MatchString(req.URL)

	reqBody, reqTruncated, reqFormat := w.bodyString(req.Body, sensitive, "", w.limits.RequestBodyCap)
	respBody, respTruncated, respFormat := w.responseBodyString(resp, sensitive)

	payload := BodyPayload{
		URL:              req.URL,
		Method:           req.Method,
		Status:           resp.Status,
		RequestHeaders:   sanitizeHeaders(req.Headers, w.limits.SensitiveHeaderRegex),
		ResponseHeaders:  sanitizeHeaders(resp.Headers, w.limits.SensitiveHeaderRegex),
		RequestBody:      reqBody,
		ResponseBody:     respBody,
		RequestTruncated: reqTruncated,
		RespTruncated:    respTruncated,
		RequestFormat:    reqFormat,
		ResponseFormat:   respFormat,
		Ts:               w.clock.Now().UTC().Format(time.RFC3339),
	}
	w.br.Post(bridge.Envelope{Type: bridge.TypeNetworkBody, Payload: payload})
}

func (w *BodyWrapper) bodyString(body []byte, sensitive bool, contentType string, capBytes int) (string, bool, string) {
	if sensitive {
		return "[REDACTED: auth endpoint]", false, ""
	}
	if len(body) == 0 {
		return "", false, ""
	}
	if contentType != "" && binaryContentType.MatchString(contentType) {
		return "[Binary: " + strconv.Itoa(len(body)) + " bytes, " + contentType + "]", false, util.FormatHint(body)
	}
	if len(body) > capBytes {
		return string(body[:capBytes]), true, ""
	}
	return string(body), false, ""
}

// responseBodyString races a 5ms timeout against reading the (already
// buffered) response body, per §4.9's body-read-timeout contract.
func (w *BodyWrapper) responseBodyString(resp hostenv.FetchResponse, sensitive bool) (string, bool, string) {
	type result struct {
		body      string
		truncated bool
		format    string
	}
	fallback := result{body: "[Skipped: body read timeout]"}
	out := concurrency.RaceWithTimeout(context.Background(), w.limits.BodyReadTimeout, fallback, func(context.Context) result {
		body, truncated, format := w.bodyString(resp.Body, sensitive, resp.ContentType, w.limits.ResponseBodyCap)
		return result{body: body, truncated: truncated, format: format}
	})
	return out.body, out.truncated, out.format
}

func sanitizeHeaders(headers map[string]string, sensitive *regexp.Regexp) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if sensitive != nil && sensitive.MatchString(k) {
			continue
		}
		out[k] = v
	}
	return out
}

// DefaultSkipURL builds the §4.9 URL filter against the configured server
// host:port, falling back to localhost:7890/127.0.0.1:7890. Matching is
// done against the URL's actual host (via util.ExtractOrigin), not a raw
// substring, so e.g. "https://localhost:7890.evil.example/" does not
// falsely match the fallback.
func DefaultSkipURL(serverHostPort string) func(url string) bool {
	fallbacks := []string{"localhost:7890", "127.0.0.1:7890"}
	return func(u string) bool {
		if strings.HasPrefix(u, "chrome-extension://") {
			return true
		}
		origin := util.ExtractOrigin(u)
		host := strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
		if serverHostPort != "" && host == serverHostPort {
			return true
		}
		for _, fb := range fallbacks {
			if host == fb {
				return true
			}
		}
		return false
	}
}
