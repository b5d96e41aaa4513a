package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/spf13/cobra"

	"github.com/Travis-Britz/netlify-ddns"
)

func newRecordsCommand(opts *options) *cobra.Command {
	var recordType string
	cmd := &cobra.Command{
		Use:   "records <domain>",
		Short: "List the DNS records of a domain's zone",
		Long: `List the records in the Netlify DNS zone that manages domain.

Example:
  netlify-ddns records example.com --type A`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.ValidateToken(); err != nil {
				return err
			}
			netlify, err := opts.netlify(cfg.AccessToken, cleanhttp.DefaultClient(), logr.Discard())
			if err != nil {
				return err
			}

			records, err := netlify.ListRecords(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("error listing records: %w", err)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "HOSTNAME\tTYPE\tTTL\tVALUE\tID")
			for _, r := range filterType(records, recordType) {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", r.Hostname, r.Type, r.TTL, r.Value, r.ID)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&recordType, "type", "", "Only show records of this type (e.g. A)")
	return cmd
}

func filterType(records ddns.RecordSet, recordType string) ddns.RecordSet {
	if recordType == "" {
		return records
	}
	var out ddns.RecordSet
	for _, r := range records {
		if strings.EqualFold(r.Type, recordType) {
			out = append(out, r)
		}
	}
	return out
}
