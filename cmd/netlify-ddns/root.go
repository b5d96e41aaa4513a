package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/cobra"

	"github.com/Travis-Britz/netlify-ddns"
	"github.com/Travis-Britz/netlify-ddns/internal/config"
	"github.com/Travis-Britz/netlify-ddns/internal/credentials"
	"github.com/Travis-Britz/netlify-ddns/internal/logging"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	configPath string
	keyFile    string
	ip         string
	interfaces []string
	ipServices []string
	verbose    bool
	logJSON    bool
	apiURL     string
}

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "netlify-ddns",
		Short: "Keep Netlify DNS A records pointed at this host",
		Long: `netlify-ddns discovers this host's public IPv4 address and updates the
"A" record of each configured domain in Netlify DNS whenever it changes.

Configuration comes from environment variables (NETLIFY_ACCESS_TOKEN,
DOMAIN_01, DOMAIN_02, ..., CHECK_INTERVAL, ENABLE_LOGGING) and an optional
YAML file. Environment variables take precedence over the file.

Quick start:
  netlify-ddns setup                  # Store your Netlify access token
  DOMAIN_01=home.example.com netlify-ddns`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			logger, flush, err := logging.New(cfg.EnableLogging, opts.verbose, opts.logJSON)
			if err != nil {
				return fmt.Errorf("error creating logger: %w", err)
			}
			defer flush()

			client, err := opts.newClient(cfg, logger)
			if err != nil {
				return err
			}
			// Run only returns once a signal cancels the context
			if err := client.Run(cmd.Context()); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&opts.configPath, "config", os.Getenv(config.EnvConfigPath), "Path to a YAML config file")
	f.StringVar(&opts.keyFile, "key-file", credentials.DefaultKeyFile(), "Path to the Netlify access token file")
	f.StringVar(&opts.ip, "ip", "", "Use this IPv4 address instead of looking it up")
	f.StringSliceVar(&opts.interfaces, "interface", nil, "Use the IPv4 address of these local interfaces")
	f.StringArrayVar(&opts.ipServices, "ip-service", nil, "IP lookup service URL (repeatable)")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	f.BoolVar(&opts.logJSON, "log-json", false, "Write logs as JSON")
	f.StringVar(&opts.apiURL, "api-url", ddns.DefaultNetlifyURL, "Netlify API base URL")
	_ = f.MarkHidden("api-url")

	cmd.AddCommand(newOnceCommand(opts))
	cmd.AddCommand(newRecordsCommand(opts))
	cmd.AddCommand(newSetupCommand(opts))
	return cmd
}

// loadConfig reads the config file and environment, then falls back to the
// key file and keyring for the token.
func (o *options) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.AccessToken == "" {
		token, err := credentials.Lookup(o.keyFile, credentials.NewKeyringStore(""))
		switch {
		case err == nil:
			cfg.AccessToken = token
		case !errors.Is(err, credentials.ErrTokenNotFound):
			return nil, fmt.Errorf("error reading access token: %w", err)
		}
	}
	if len(o.ipServices) > 0 {
		cfg.IPServices = o.ipServices
	}
	return cfg, nil
}

// load returns a fully validated config for commands that update records.
func (o *options) load() (*config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (o *options) resolver() (ddns.Resolver, error) {
	switch {
	case o.ip != "":
		return ddns.FromString(o.ip)
	case len(o.interfaces) > 0:
		return ddns.InterfaceResolver(o.interfaces...), nil
	}
	return nil, nil
}

func (o *options) netlify(token string, httpClient *http.Client, logger logr.Logger) (*ddns.NetlifyClient, error) {
	return ddns.NewNetlifyClient(token, httpClient,
		ddns.WithBaseURL(o.apiURL),
		ddns.WithNetlifyLogger(logger.WithName("netlify")),
	)
}

func (o *options) newClient(cfg *config.Config, logger logr.Logger) (*ddns.Client, error) {
	httpClient := cleanhttp.DefaultPooledClient()
	provider, err := o.netlify(cfg.AccessToken, httpClient, logger)
	if err != nil {
		return nil, err
	}

	clientOpts := []ddns.ClientOption{
		ddns.UsingProvider(provider),
		ddns.UsingHTTPClient(httpClient),
		ddns.WithLogger(logger),
		ddns.WithInterval(cfg.CheckInterval),
	}
	r, err := o.resolver()
	switch {
	case err != nil:
		return nil, fmt.Errorf("invalid --ip: %w", err)
	case r != nil:
		clientOpts = append(clientOpts, ddns.UsingResolver(r))
	case len(cfg.IPServices) > 0:
		clientOpts = append(clientOpts, ddns.UsingWebResolver(cfg.IPServices...))
	}

	client, err := ddns.New(cfg.Domains, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("error creating ddns.Client: %w", err)
	}
	return client, nil
}
