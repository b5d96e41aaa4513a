package ddns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/time/rate"
)

// DefaultNetlifyURL is the base URL of the Netlify REST API.
const DefaultNetlifyURL = "https://api.netlify.com/api/v1"

// Netlify allows roughly 500 API requests per minute per token.
const (
	defaultNetlifyRate  = rate.Limit(500.0 / 60.0)
	defaultNetlifyBurst = 10
)

const maxErrorBody = 512

// Zone is a Netlify DNS zone.
type Zone struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NetlifyClient manages the records of Netlify DNS zones.
// It implements [Provider] and is safe for concurrent use.
//
// It should be constructed using [NewNetlifyClient].
// Failed calls are never retried.
type NetlifyClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	logger  logr.Logger
}

// NetlifyOption configures a [NetlifyClient].
type NetlifyOption func(*NetlifyClient)

// WithBaseURL points the client at a different API root, such as a test server.
func WithBaseURL(u string) NetlifyOption {
	return func(c *NetlifyClient) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithRateLimit paces API calls. Use rate.Inf to disable pacing.
func WithRateLimit(limit rate.Limit, burst int) NetlifyOption {
	return func(c *NetlifyClient) { c.limiter = rate.NewLimiter(limit, burst) }
}

// WithNetlifyLogger sets the logger used for request-level debug output.
func WithNetlifyLogger(logger logr.Logger) NetlifyOption {
	return func(c *NetlifyClient) { c.logger = logger }
}

// NewNetlifyClient creates a client which authenticates every request with token.
//
// httpClient supplies the transport and timeout; the token is attached by a wrapping transport,
// so httpClient itself can be shared with other callers without leaking the token.
// A nil httpClient uses a pooled client from go-cleanhttp.
func NewNetlifyClient(token string, httpClient *http.Client, options ...NetlifyOption) (*NetlifyClient, error) {
	if strings.TrimSpace(token) == "" {
		return nil, invalidArgument("access token cannot be empty")
	}
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}
	base := httpClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c := &NetlifyClient{
		baseURL: DefaultNetlifyURL,
		http: &http.Client{
			Transport:     &authTransport{token: token, base: base},
			CheckRedirect: httpClient.CheckRedirect,
			Jar:           httpClient.Jar,
			Timeout:       httpClient.Timeout,
		},
		limiter: rate.NewLimiter(defaultNetlifyRate, defaultNetlifyBurst),
		logger:  logr.Discard(),
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

func (c *NetlifyClient) SetLogger(logger logr.Logger) { c.logger = logger }

// ListRecords returns every record in the zone that holds domain.
// The zone is found from the last two labels of domain.
func (c *NetlifyClient) ListRecords(ctx context.Context, domain string) (RecordSet, error) {
	if strings.TrimSpace(domain) == "" {
		return nil, invalidArgument("domain cannot be empty")
	}
	registrable, err := DomainFromHostname(domain)
	if err != nil {
		return nil, err
	}
	body, err := c.do(ctx, http.MethodGet, recordsPath(ZoneID(registrable)), nil)
	if err != nil {
		return nil, err
	}
	records, err := ParseRecordSet(body)
	if err != nil {
		return nil, fmt.Errorf("listing records for %s: %w", domain, err)
	}
	return records, nil
}

// CreateRecord adds a record for hostname to the zone for domain and returns it with its assigned ID.
func (c *NetlifyClient) CreateRecord(ctx context.Context, hostname, domain, recordType, value string, ttl int64) (*Record, error) {
	switch {
	case strings.TrimSpace(hostname) == "":
		return nil, invalidArgument("hostname cannot be empty")
	case strings.TrimSpace(domain) == "":
		return nil, invalidArgument("domain cannot be empty")
	case strings.TrimSpace(recordType) == "":
		return nil, invalidArgument("record type cannot be empty")
	case strings.TrimSpace(value) == "":
		return nil, invalidArgument("record value cannot be empty")
	case ttl < 0:
		return nil, invalidArgument("ttl cannot be negative")
	}

	zid := ZoneID(domain)
	record := Record{
		Hostname:  hostname,
		Type:      recordType,
		TTL:       ttl,
		DNSZoneID: zid,
		Errors:    []json.RawMessage{},
		Value:     value,
	}
	body, err := c.do(ctx, http.MethodPost, recordsPath(zid), record)
	if err != nil {
		return nil, err
	}
	created, err := ParseRecord(body)
	if err != nil {
		return nil, fmt.Errorf("creating %s record for %s: %w", recordType, hostname, err)
	}
	return created, nil
}

// DeleteRecord removes r from the zone that holds its hostname. r must have an ID.
func (c *NetlifyClient) DeleteRecord(ctx context.Context, r *Record) error {
	if r == nil {
		return fmt.Errorf("%w: record cannot be nil", ErrNullArgument)
	}
	if strings.TrimSpace(r.ID) == "" {
		return invalidArgument("record %s has no ID", r)
	}
	registrable, err := DomainFromHostname(r.Hostname)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodDelete, recordsPath(ZoneID(registrable))+"/"+url.PathEscape(r.ID), nil)
	return err
}

// ListZones returns the DNS zones the token can access.
func (c *NetlifyClient) ListZones(ctx context.Context) ([]Zone, error) {
	body, err := c.do(ctx, http.MethodGet, "/dns_zones", nil)
	if err != nil {
		return nil, err
	}
	var zones []Zone
	if err := json.Unmarshal(body, &zones); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return zones, nil
}

func recordsPath(zoneID string) string {
	return "/dns_zones/" + url.PathEscape(zoneID) + "/dns_records"
}

// do sends a request to the API and returns the body of a 2xx response.
func (c *NetlifyClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	u := c.baseURL + path
	perr := &ProviderError{Method: method, URL: u}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		perr.Err = err
		return nil, perr
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		perr.Err = err
		return nil, perr
	}
	defer resp.Body.Close()
	c.logger.V(1).Info("netlify api call", "method", method, "url", u, "status", resp.StatusCode, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		perr.StatusCode, perr.Status, perr.Err = resp.StatusCode, resp.Status, err
		return nil, perr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr.StatusCode, perr.Status = resp.StatusCode, resp.Status
		perr.Body = truncate(strings.TrimSpace(string(data)), maxErrorBody)
		return nil, perr
	}
	return data, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// authTransport attaches the bearer token and JSON accept header to every request.
type authTransport struct {
	token string
	base  http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "Bearer "+t.token)
	req.Header.Set("Accept", "application/json")
	return t.base.RoundTrip(req)
}
