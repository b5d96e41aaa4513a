package ddns

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
)

// DefaultInterval is the time between update passes when none is configured.
const DefaultInterval = 1800 * time.Second

// DefaultTTL is the TTL in seconds given to every record created by [Client].
const DefaultTTL = 1800

// Resolver finds the current IPv4 address that DNS records should point at.
type Resolver interface {
	Resolve(context.Context) (string, error)
}

// ResolverFunc adapts an ordinary function to the [Resolver] interface.
type ResolverFunc func(context.Context) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context) (string, error) { return f(ctx) }

// Provider is the record store of a DNS host.
type Provider interface {
	ListRecords(ctx context.Context, domain string) (RecordSet, error)
	CreateRecord(ctx context.Context, hostname, domain, recordType, value string, ttl int64) (*Record, error)
	DeleteRecord(ctx context.Context, record *Record) error
}

// New creates a client that keeps the "A" record of each domain pointed at the resolved IP.
//
// Unless [UsingResolver] or [UsingWebResolver] is given, the client races [DefaultIPServices].
// A provider must be registered with [UsingNetlify] or [UsingProvider].
// Unless [UsingHTTPClient] is given, the resolver and provider share one pooled http.Client.
func New(domains []string, options ...ClientOption) (*Client, error) {
	if len(domains) == 0 {
		return nil, fmt.Errorf("ddns.New: %w: at least one domain is required", ErrInvalidArgument)
	}
	for _, d := range domains {
		if strings.TrimSpace(d) == "" {
			return nil, fmt.Errorf("ddns.New: %w: domain cannot be empty", ErrInvalidArgument)
		}
	}
	c := &Client{
		domains:    append([]string(nil), domains...),
		interval:   DefaultInterval,
		logger:     logr.Discard(),
		httpClient: cleanhttp.DefaultPooledClient(),
	}
	for i, opt := range options {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("ddns.New: option %d returned an error: %w", i, err)
		}
	}

	if c.resolver == nil {
		r, err := WebResolver()
		if err != nil {
			return nil, fmt.Errorf("ddns.New: %w", err)
		}
		c.resolver = r
	}
	if c.netlifyToken != "" {
		p, err := NewNetlifyClient(c.netlifyToken, c.httpClient)
		if err != nil {
			return nil, fmt.Errorf("ddns.New: error creating Netlify client: %w", err)
		}
		c.provider = p
	}
	if c.provider == nil {
		return nil, errors.New("ddns.New: no DNS provider was registered - use ddns.UsingNetlify")
	}

	// dependencies are wired last so option order doesn't matter
	type setHTTPClient interface {
		SetHTTPClient(*http.Client)
	}
	if r, ok := c.resolver.(setHTTPClient); ok {
		r.SetHTTPClient(c.httpClient)
	}
	type setLogger interface {
		SetLogger(logr.Logger)
	}
	if p, ok := c.provider.(setLogger); ok {
		p.SetLogger(c.logger.WithName("netlify"))
	}
	return c, nil
}

// ClientOption configures a [Client] created by [New].
type ClientOption func(*Client) error

// UsingNetlify registers Netlify as the DNS provider, authenticated with token.
func UsingNetlify(token string) ClientOption {
	return func(c *Client) error {
		if strings.TrimSpace(token) == "" {
			return fmt.Errorf("ddns.UsingNetlify: %w: access token cannot be empty", ErrInvalidArgument)
		}
		c.netlifyToken = token
		c.provider = nil
		return nil
	}
}

// UsingProvider registers an already constructed provider, such as a [NetlifyClient] with custom options.
func UsingProvider(p Provider) ClientOption {
	return func(c *Client) error {
		if p == nil {
			return fmt.Errorf("ddns.UsingProvider: %w", ErrNullArgument)
		}
		c.provider = p
		c.netlifyToken = ""
		return nil
	}
}

// UsingResolver replaces the default web resolver.
func UsingResolver(resolver Resolver) ClientOption {
	return func(c *Client) error {
		c.resolver = resolver
		return nil
	}
}

// UsingWebResolver races the given IP lookup services instead of [DefaultIPServices].
func UsingWebResolver(serviceURL ...string) ClientOption {
	return func(c *Client) (err error) {
		c.resolver, err = WebResolver(serviceURL...)
		return err
	}
}

// UsingHTTPClient sets the http.Client shared by the web resolver and the Netlify provider.
func UsingHTTPClient(httpclient *http.Client) ClientOption {
	return func(c *Client) error {
		if httpclient == nil {
			httpclient = cleanhttp.DefaultPooledClient()
		}
		c.httpClient = httpclient
		return nil
	}
}

// WithLogger sets the logger. Routine progress is logged at V(0), request detail at V(1).
func WithLogger(logger logr.Logger) ClientOption {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithInterval sets the time [Client.Run] waits between passes.
// Non-positive values select [DefaultInterval].
func WithInterval(interval time.Duration) ClientOption {
	return func(c *Client) error {
		if interval <= 0 {
			interval = DefaultInterval
		}
		c.interval = interval
		return nil
	}
}

// Client keeps the "A" records of its domains in sync with its resolver.
//
// It should be constructed using [New].
type Client struct {
	resolver     Resolver
	provider     Provider
	netlifyToken string
	httpClient   *http.Client
	logger       logr.Logger
	domains      []string
	interval     time.Duration
}

// Domains returns the managed domains in the order they are processed.
func (c *Client) Domains() []string { return append([]string(nil), c.domains...) }

// Interval returns the wait between passes of [Client.Run].
func (c *Client) Interval() time.Duration { return c.interval }

// RunDDNS performs a single update pass.
//
// The IP is resolved once, then each domain is reconciled in order.
// A failure on one domain is logged and does not stop the others;
// the returned error joins every failure of the pass.
func (c *Client) RunDDNS(ctx context.Context) error {
	ip, err := c.resolver.Resolve(ctx)
	if err != nil {
		err = fmt.Errorf("error getting IP: %w", err)
		c.logger.Error(err, "skipping update pass")
		return err
	}
	c.logger.Info("resolved current IP address", "ip", ip)

	var errs []error
	for _, domain := range c.domains {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		c.logger.V(1).Info("checking domain", "domain", domain)
		if err := c.syncDomain(ctx, domain, ip); err != nil {
			c.logger.Error(err, "error updating DNS record", "domain", domain)
			errs = append(errs, fmt.Errorf("error updating %s: %w", domain, err))
		}
	}
	return errors.Join(errs...)
}

// syncDomain points the "A" record for domain at ip, replacing a stale record.
// Netlify records cannot be edited in place, so a change is a delete followed by a create.
func (c *Client) syncDomain(ctx context.Context, domain, ip string) error {
	records, err := c.provider.ListRecords(ctx, domain)
	if err != nil {
		return fmt.Errorf("error listing records: %w", err)
	}

	existing := records.FirstA(domain)
	if existing != nil {
		if existing.Value == ip {
			c.logger.Info("IP address is current", "domain", domain, "ip", ip)
			return nil
		}
		c.logger.Info("IP address changed, replacing record", "domain", domain, "previous", existing.Value, "ip", ip)
		if err := c.provider.DeleteRecord(ctx, existing); err != nil {
			return fmt.Errorf("unable to delete DNS record %s: %w", existing.ID, err)
		}
		c.logger.V(1).Info("deleted stale record", "domain", domain, "recordID", existing.ID)
	} else {
		c.logger.Info("no existing A record found, creating one", "domain", domain)
	}

	record, err := c.provider.CreateRecord(ctx, domain, domain, RecordTypeA, ip, DefaultTTL)
	if err != nil {
		return fmt.Errorf("error creating DNS record: %w", err)
	}
	c.logger.Info("A record set", "domain", domain, "ip", ip, "recordID", record.ID)
	return nil
}

// Run performs an update pass immediately and then once per interval until ctx is cancelled.
// Errors from individual passes are logged and never stop the loop.
// It always returns ctx.Err().
func (c *Client) Run(ctx context.Context) error {
	c.logger.Info("started Netlify DNS updater", "interval", c.interval, "domains", strings.Join(c.domains, ", "))

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// failures were logged by RunDDNS
		_ = c.RunDDNS(ctx)

		timer := time.NewTimer(c.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			c.logger.Info("stopping Netlify DNS updater")
			return ctx.Err()
		case <-timer.C:
		}
	}
}
