package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/syssam/related/codec"
	"github.com/syssam/related/internal/config"
	"github.com/syssam/related/models"
)

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var dump string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load snapshots into a store and report the loaded records",
		Long: `Load the configured database snapshot and snapshot files into a store, in
that order, and report the number of records per model.

References to records that no snapshot contains stay pending and are
reported too.`,
		Example: `  # Load two snapshot files
  related load --schema pos.yaml --snapshot partners.json,orders.msgpack

  # Load from a SQLite database and dump the orders
  related load --db-driver sqlite --db-dsn pos.db --dump pos.order`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := s.load(cmd.Context())
			if err != nil {
				return err
			}
			if dump != "" {
				return dumpModel(cmd.OutOrStdout(), s.store, dump)
			}
			return report(cmd.OutOrStdout(), s.cfg, s.store, stats)
		},
	}
	cmd.Flags().StringVar(&dump, "dump", "", "print the serialized records of a model instead of counts")
	return cmd
}

// modelCount is the load report of one model.
type modelCount struct {
	Model   string `json:"model"`
	Loaded  int    `json:"loaded"`
	Records int    `json:"records"`
}

func counts(store *models.Models, stats loadStats) ([]modelCount, int) {
	var out []modelCount
	for _, name := range store.Schema().Models() {
		out = append(out, modelCount{Model: name, Loaded: stats[name], Records: store.Table(name).Len()})
	}
	pending := 0
	for _, n := range store.Pending() {
		pending += n
	}
	return out, pending
}

func report(w io.Writer, cfg *config.Config, store *models.Models, stats loadStats) error {
	rows, pending := counts(store, stats)
	if cfg.Output == config.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Models  []modelCount `json:"models"`
			Pending int          `json:"pending"`
		}{rows, pending})
	}
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Model", "Loaded", "Records"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Model, r.Loaded, r.Records})
	}
	t.AppendFooter(table.Row{"Pending links", pending, ""})
	t.Render()
	return nil
}

func dumpModel(w io.Writer, store *models.Models, model string) error {
	t := store.Table(model)
	if t == nil {
		return fmt.Errorf("unknown model %q", model)
	}
	records := make([]models.Values, 0, t.Len())
	for r := range t.All() {
		records = append(records, t.Serialize(r))
	}
	data, err := codec.JSON{Indent: true}.Marshal(records)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
