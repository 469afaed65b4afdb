package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/syssam/related/codec"
	"github.com/syssam/related/models"
)

// NewSerializeCommand creates the serialize command.
func NewSerializeCommand() *cobra.Command {
	var (
		model string
		id    string
		orm   bool
	)
	cmd := &cobra.Command{
		Use:   "serialize",
		Short: "Print a loaded record in its serialized form",
		Long: `Load the configured snapshots and print one record.

Without --orm the flat values of the record are printed, relations as ids.
With --orm the write payload is printed: relations become command lists
and fields the server never receives are left out.`,
		Example: `  related serialize --snapshot orders.json --model pos.order --id 3 --orm`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if model == "" || id == "" {
				return errors.New("both --model and --id are required")
			}
			s, err := newSession(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := s.load(cmd.Context()); err != nil {
				return err
			}
			t := s.store.Table(model)
			if t == nil {
				return fmt.Errorf("unknown model %q", model)
			}
			r := t.Read(id)
			if r == nil {
				return fmt.Errorf("%s has no record %s", model, id)
			}
			var opts []models.SerializeOption
			if orm {
				opts = append(opts, models.ORM())
			}
			data, err := codec.JSON{Indent: true}.Marshal(r.Serialize(opts...))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return err
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "model of the record")
	cmd.Flags().StringVar(&id, "id", "", "id of the record")
	cmd.Flags().BoolVar(&orm, "orm", false, "print the write payload")
	return cmd
}
