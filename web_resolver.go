package ddns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultIPServices are queried by [WebResolver] when no URLs are given.
var DefaultIPServices = []string{
	"https://icanhazip.com",
	"https://api.ipify.org",
	"https://ipv4.seeip.org",
}

// WebResolver constructs a resolver which uses external web services to look up the public IPv4 address.
//
// Each serviceURL must speak http and return status "200 OK",
// with a body holding only an IPv4 address, optionally followed by a newline.
// All other responses are considered an error.
//
// Every service is queried at once on each call to Resolve,
// and the first valid answer to arrive wins.
// Requests still in flight at that point are cancelled.
// If no serviceURL is given then [DefaultIPServices] is used.
func WebResolver(serviceURL ...string) (Resolver, error) {
	if len(serviceURL) == 0 {
		serviceURL = DefaultIPServices
	}
	var URLs []*url.URL
	for _, u := range serviceURL {
		pu, err := url.Parse(u)
		if err != nil {
			return nil, fmt.Errorf("error parsing URL: %w", err)
		}
		if pu.Scheme != "http" && pu.Scheme != "https" {
			return nil, invalidArgument("IP service %q must be an http or https URL", u)
		}
		URLs = append(URLs, pu)
	}
	return &webResolver{serviceURLs: URLs}, nil
}

type webResolver struct {
	httpClient  *http.Client
	serviceURLs []*url.URL
}

func (wr *webResolver) SetHTTPClient(c *http.Client) { wr.httpClient = c }

// Resolve implements ddns.Resolver.
func (wr *webResolver) Resolve(ctx context.Context) (string, error) {
	if len(wr.serviceURLs) == 0 {
		return "", fmt.Errorf("%w: no external IP lookup services were provided", ErrAllSourcesFailed)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		ip  string
		err error
	}

	// buffered so that losing lookups never block after we've returned
	results := make(chan result, len(wr.serviceURLs))

	var g errgroup.Group
	for _, u := range wr.serviceURLs {
		g.Go(func() error {
			ip, err := wr.lookup(ctx, u)
			results <- result{ip: ip, err: err}
			return nil
		})
	}
	go func() {
		// lookups report failures through results, so Wait never has an error to return
		_ = g.Wait()
		close(results)
	}()

	var errs []error
	for r := range results {
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		return r.ip, nil
	}
	return "", fmt.Errorf("%w: %w", ErrAllSourcesFailed, errors.Join(errs...))
}

func (wr *webResolver) lookup(ctx context.Context, u *url.URL) (string, error) {
	// 15 seconds is an eternity for the size of the request we're making,
	// but this ensures that all calls to resolve will eventually complete even if the user supplied context.Background
	// and an http.Client with no timeout.
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: error creating request: %w", u, err)
	}
	req.Header.Set("Cache-Control", "no-cache")

	httpclient := wr.httpClient
	if httpclient == nil {
		httpclient = http.DefaultClient
	}

	resp, err := httpclient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: http request failed: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s: http request returned %s", u, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64))
	if err != nil {
		return "", fmt.Errorf("%s: error reading response body: %w", u, err)
	}
	ip := strings.TrimSpace(string(body))
	if !ValidIPv4(ip) {
		return "", fmt.Errorf("%s: response %q is not an IPv4 address", u, ip)
	}
	return ip, nil
}

// ValidIPv4 reports whether s is exactly four dot-separated decimal octets, each in [0,255].
func ValidIPv4(s string) bool {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return false
	}
	for _, p := range parts {
		if p == "" || len(p) > 3 || strings.TrimLeft(p, "0123456789") != "" {
			return false
		}
		n, err := strconv.Atoi(p)
		if err != nil || n > 255 {
			return false
		}
	}
	return true
}
