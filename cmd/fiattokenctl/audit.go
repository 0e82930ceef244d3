package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"fiattoken/integrations/audit"
	"fiattoken/integrations/exports"
)

var errAuditDisabled = errors.New("audit store disabled: set [Audit] DSN in the config")

type auditFilterFlags struct {
	eventType string
	caller    string
	fromSeq   uint64
	limit     int
}

func (f *auditFilterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.eventType, "type", "", "only records of this event type")
	cmd.Flags().StringVar(&f.caller, "caller", "", "only records produced by this caller")
	cmd.Flags().Uint64Var(&f.fromSeq, "from-seq", 0, "only records at or after this sequence number")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of records")
}

func (f *auditFilterFlags) filter() audit.Filter {
	return audit.Filter{Type: f.eventType, Caller: f.caller, FromSeq: f.fromSeq, Limit: f.limit}
}

func auditCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query and export the audit trail",
	}

	var listFlags auditFilterFlags
	list := &cobra.Command{
		Use:   "list",
		Short: "Print stored audit records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.auditRecords(cmd, listFlags.filter())
			if err != nil {
				return err
			}
			data, _, err := exports.JSONL(records)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	listFlags.register(list)

	var (
		exportFlags auditFilterFlags
		format      string
		out         string
	)
	export := &cobra.Command{
		Use:   "export",
		Short: "Export audit records as csv, jsonl or parquet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			records, err := a.auditRecords(cmd, exportFlags.filter())
			if err != nil {
				return err
			}
			data, checksum, err := exports.Encode(exports.Format(format), records)
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"path":     out,
				"format":   format,
				"records":  len(records),
				"checksum": fmt.Sprintf("sha256:%s", checksum),
			})
		},
	}
	exportFlags.register(export)
	export.Flags().StringVar(&format, "format", string(exports.FormatCSV), "csv, jsonl or parquet")
	export.Flags().StringVarP(&out, "out", "o", "", "output file (stdout when empty)")

	cmd.AddCommand(list, export)
	return cmd
}

func (a *app) auditRecords(cmd *cobra.Command, filter audit.Filter) ([]audit.Record, error) {
	store, err := a.auditStore()
	if err != nil {
		return nil, err
	}
	if store == nil {
		return nil, errAuditDisabled
	}
	return store.List(cmd.Context(), filter)
}
