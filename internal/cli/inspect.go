package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/related/internal/config"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [model...]",
		Short: "Show the processed schema, including synthesized inverses",
		Example: `  # Show every model of the schema
  related inspect --schema pos.yaml

  # Show two models as JSON
  related inspect pos.order pos.order.line -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig(cmd.Context())
			s, err := loadSchema(cfg)
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = s.Models()
			}
			var ms []*schema.Model
			for _, name := range names {
				m, ok := s.Model(name)
				if !ok {
					return fmt.Errorf("unknown model %q", name)
				}
				ms = append(ms, m)
			}
			if cfg.Output == config.OutputJSON {
				return inspectJSON(cmd.OutOrStdout(), s, ms)
			}
			inspectText(cmd.OutOrStdout(), s, ms)
			return nil
		},
	}
}

// fieldInfo is the JSON form of a field.
type fieldInfo struct {
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	Label         string   `json:"label"`
	Relation      string   `json:"relation,omitempty"`
	Inverse       string   `json:"inverse,omitempty"`
	RelationTable string   `json:"relation_table,omitempty"`
	Kind          string   `json:"kind"`
	Flags         []string `json:"flags,omitempty"`
}

func describe(s *schema.Schema, f *field.Descriptor) fieldInfo {
	info := fieldInfo{
		Name:          f.Name,
		Type:          f.Type.String(),
		Label:         f.Label(),
		Relation:      f.Relation,
		RelationTable: f.RelationTable,
		Kind:          f.Kind.String(),
		Flags:         flags(f),
	}
	if inv := s.Inverse(f); inv != nil {
		info.Inverse = inv.Name
	}
	return info
}

func flags(f *field.Descriptor) []string {
	var out []string
	for _, flag := range []struct {
		name string
		set  bool
	}{
		{"required", f.Required},
		{"local", f.Local},
		{"related", f.Related},
		{"compute", f.Compute},
	} {
		if flag.set {
			out = append(out, flag.name)
		}
	}
	return out
}

// title returns the display title of a model: "pos.order" is "Pos Order".
func title(model string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(model, ".", " "))
}

func inspectText(w io.Writer, s *schema.Schema, ms []*schema.Model) {
	for i, m := range ms {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		_, _ = fmt.Fprintf(w, "%s (%s)\n", title(m.Name), m.Name)
		t := table.NewWriter()
		t.SetOutputMirror(w)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"Field", "Type", "Relation", "Inverse", "Label", "Kind", "Flags"})
		for _, f := range m.Fields {
			info := describe(s, f)
			t.AppendRow(table.Row{info.Name, info.Type, info.Relation, info.Inverse, info.Label, info.Kind, strings.Join(info.Flags, ",")})
		}
		t.Render()
	}
}

func inspectJSON(w io.Writer, s *schema.Schema, ms []*schema.Model) error {
	type modelInfo struct {
		Model  string      `json:"model"`
		Title  string      `json:"title"`
		Fields []fieldInfo `json:"fields"`
	}
	out := make([]modelInfo, 0, len(ms))
	for _, m := range ms {
		info := modelInfo{Model: m.Name, Title: title(m.Name), Fields: make([]fieldInfo, 0, len(m.Fields))}
		for _, f := range m.Fields {
			info.Fields = append(info.Fields, describe(s, f))
		}
		out = append(out, info)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
