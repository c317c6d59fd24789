package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"net/url"
	"regexp"
	"time"

	appctx "github.com/brave-intl/spectrocoin-callback/libs/context"
	"github.com/brave-intl/spectrocoin-callback/libs/errors"
	"github.com/brave-intl/spectrocoin-callback/libs/middleware"
	"github.com/brave-intl/spectrocoin-callback/libs/requestutils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const defaultTimeout = 10 * time.Second

// regular expression mapped to the replacement
var redactHeaders = map[*regexp.Regexp][]byte{
	regexp.MustCompile(`(?i)authorization: (?i)basic.+\n`):  []byte("Authorization: Basic <token>\n"),
	regexp.MustCompile(`(?i)authorization: (?i)bearer.+\n`): []byte("Authorization: Bearer <token>\n"),
	regexp.MustCompile(`(?i)client_secret=[^&\s]+`):         []byte("client_secret=<secret>"),
	regexp.MustCompile(`(?i)"access_token":\s*"[^"]+"`):     []byte(`"access_token":"<token>"`),
}

// RedactSensitiveHeaders from http request dumps
func RedactSensitiveHeaders(corpus []byte) []byte {
	for k, v := range redactHeaders {
		corpus = k.ReplaceAll(corpus, v)
	}
	return corpus
}

var concurrentClientRequests = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "concurrent_client_requests",
		Help: "Gauge that holds the current number of client requests",
	},
	[]string{
		"host",
		"method",
	},
)

func init() {
	prometheus.MustRegister(concurrentClientRequests)
}

// SimpleHTTPClient wraps http.Client for making simple token authorized requests
type SimpleHTTPClient struct {
	BaseURL   *url.URL
	AuthToken string

	client *http.Client
}

// New returns a new SimpleHTTPClient
func New(serverURL string, authToken string) (*SimpleHTTPClient, error) {
	return NewWithHTTPClient(serverURL, authToken, &http.Client{
		Timeout: defaultTimeout,
	})
}

// NewWithHTTPClient returns a new SimpleHTTPClient, using the provided http.Client
func NewWithHTTPClient(serverURL string, authToken string, client *http.Client) (*SimpleHTTPClient, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}

	return &SimpleHTTPClient{
		BaseURL:   baseURL,
		AuthToken: authToken,
		client:    client,
	}, nil
}

// NewInstrumented returns a new SimpleHTTPClient whose transport reports prometheus metrics under name
func NewInstrumented(name, serverURL string, timeout time.Duration) (*SimpleHTTPClient, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return NewWithHTTPClient(serverURL, "", &http.Client{
		Timeout:   timeout,
		Transport: middleware.InstrumentRoundTripper(http.DefaultTransport, name),
	})
}

// HTTPClient returns the underlying http.Client
func (c *SimpleHTTPClient) HTTPClient() *http.Client {
	return c.client
}

// ResolveURL resolves path against the base url, keeping any path prefix of the base
func (c *SimpleHTTPClient) ResolveURL(path string) *url.URL {
	base := *c.BaseURL
	if len(base.Path) == 0 || base.Path[len(base.Path)-1] != '/' {
		base.Path += "/"
	}

	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}

	return base.ResolveReference(&url.URL{Path: path})
}

// NewRequest creates a request, JSON encoding the body passed
func (c *SimpleHTTPClient) NewRequest(
	ctx context.Context,
	method,
	path string,
	body interface{},
) (*http.Request, error) {
	resolvedURL := c.ResolveURL(path)

	var buf io.ReadWriter
	if body != nil && method != http.MethodGet {
		buf = new(bytes.Buffer)
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, NewHTTPError(err, resolvedURL.String(), ErrUnableToEncodeBody, http.StatusBadRequest, body)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, resolvedURL.String(), buf)
	if err != nil {
		return nil, NewHTTPError(err, resolvedURL.String(), ErrMalformedRequest, http.StatusBadRequest, body)
	}

	req.Header.Set("accept", "application/json")
	if body != nil {
		req.Header.Add("content-type", "application/json")
	}
	requestutils.SetRequestID(ctx, req)
	if c.AuthToken != "" {
		req.Header.Set("authorization", "Bearer "+c.AuthToken)
	}
	return req, nil
}

// NewFormRequest creates a request with a form encoded body
func (c *SimpleHTTPClient) NewFormRequest(
	ctx context.Context,
	method,
	path string,
	form url.Values,
) (*http.Request, error) {
	resolvedURL := c.ResolveURL(path)

	req, err := http.NewRequestWithContext(ctx, method, resolvedURL.String(), bytes.NewBufferString(form.Encode()))
	if err != nil {
		return nil, NewHTTPError(err, resolvedURL.String(), ErrMalformedRequest, http.StatusBadRequest, nil)
	}

	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	requestutils.SetRequestID(ctx, req)
	return req, nil
}

// Do the specified http request, decoding the JSON result into v
func (c *SimpleHTTPClient) Do(ctx context.Context, req *http.Request, v interface{}) (*http.Response, error) {
	concurrentClientRequests.With(
		prometheus.Labels{
			"host": req.URL.Host, "method": req.Method,
		}).Inc()

	defer func() {
		concurrentClientRequests.With(
			prometheus.Labels{
				"host": req.URL.Host, "method": req.Method,
			}).Dec()
	}()

	logger := log.Ctx(ctx)
	debug, okDebug := ctx.Value(appctx.DebugLoggingCTXKey).(bool)

	if okDebug && debug {
		requestDump, err := httputil.DumpRequestOut(req, true)
		if err != nil {
			logger.Error().Err(err).Str("type", "http.Request").Msg("failed to dump request body")
		} else {
			logger.Debug().Str("type", "http.Request").Msg(string(RedactSensitiveHeaders(requestDump)))
		}
	}

	// put a timeout on the request context
	timeout := c.client.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	reqCtx, cancel := context.WithTimeout(req.Context(), timeout)
	defer cancel()

	req = req.WithContext(reqCtx)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, NewHTTPError(err, req.URL.Path, ErrTransport, 0, nil)
	}
	status := resp.StatusCode

	bodyBytes, err := requestutils.Read(ctx, resp.Body)
	if err != nil {
		return resp, NewHTTPError(err, req.URL.Path, ErrTransport, status, nil)
	}
	resp.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if okDebug && debug {
		logger.Debug().Str("type", "http.Response").Int("status", status).Msg(string(RedactSensitiveHeaders(bodyBytes)))
	}

	if status >= 200 && status <= 299 {
		if v != nil {
			if err := json.Unmarshal(bodyBytes, v); err != nil {
				return resp, errors.Wrap(err, ErrUnableToDecode)
			}
		}

		return resp, nil
	}

	logger.Warn().
		Int("response_status", status).
		Str("host", req.URL.Host).
		Str("path", req.URL.Path).
		Msg("failed http client call")

	return resp, NewHTTPError(
		fmt.Errorf("%w: %d", errUnexpectedStatus, status),
		req.URL.Path,
		ErrProtocolError,
		status,
		string(RedactSensitiveHeaders(bodyBytes)),
	)
}
