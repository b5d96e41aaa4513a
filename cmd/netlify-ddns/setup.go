package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Travis-Britz/netlify-ddns/internal/credentials"
)

func newSetupCommand(opts *options) *cobra.Command {
	var useKeyring bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Verify and store a Netlify personal access token",
		Long: `Prompt for a Netlify personal access token, verify it by listing your
DNS zones, and store it in the key file (mode 0600) or the OS keyring.

An existing key file is never overwritten.

Example:
  netlify-ddns setup
  netlify-ddns setup --keyring`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !useKeyring {
				if opts.keyFile == "" {
					return errors.New("no key file path: pass --key-file or --keyring")
				}
				// fail before prompting rather than after
				if _, err := os.Stat(opts.keyFile); err == nil {
					return fmt.Errorf("key file %q already exists", opts.keyFile)
				}
			}

			fmt.Fprint(out, "Enter Netlify personal access token: ")
			token, err := readToken(cmd.InOrStdin())
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("error reading token: %w", err)
			}
			if token == "" {
				return errors.New("token cannot be empty")
			}

			netlify, err := opts.netlify(token, cleanhttp.DefaultClient(), logr.Discard())
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()
			fmt.Fprintln(out, "verifying token...")
			zones, err := netlify.ListZones(ctx)
			if err != nil {
				return fmt.Errorf("unable to verify token: %w", err)
			}
			fmt.Fprintf(out, "token verified: %d DNS zone(s) accessible\n", len(zones))
			for _, z := range zones {
				fmt.Fprintf(out, "  %s\n", z.Name)
			}

			if useKeyring {
				if err := credentials.NewKeyringStore("").SetToken(token); err != nil {
					return fmt.Errorf("error saving token to keyring: %w", err)
				}
				fmt.Fprintln(out, "token saved to the OS keyring")
				return nil
			}
			if err := credentials.WriteKeyFile(opts.keyFile, token); err != nil {
				return err
			}
			fmt.Fprintf(out, "token written to %q\n", opts.keyFile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&useKeyring, "keyring", false, "Store the token in the OS keyring instead of the key file")
	return cmd
}

// readToken reads without echo from a terminal, or the first line otherwise.
func readToken(in io.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(b)), nil
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
