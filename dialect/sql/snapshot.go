package sql

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/syssam/related"
	"github.com/syssam/related/dialect"
	"github.com/syssam/related/models"
	"github.com/syssam/related/schema"
	"github.com/syssam/related/schema/field"
)

// Server formats of date and datetime values.
const (
	DateFormat     = "2006-01-02"
	DatetimeFormat = "2006-01-02 15:04:05"
)

// TableName returns the table a model is stored in.
func TableName(model string) string {
	return strings.ReplaceAll(model, ".", "_")
}

// Stored reports whether a field has a column in the table of its model.
func Stored(f *field.Descriptor) bool {
	return !f.IsDummy() && !f.ClientOnly() && !f.Type.IsX2Many()
}

// RelationColumns returns the columns of the relation table of a
// many2many field, the owner column first.
func RelationColumns(f *field.Descriptor) (string, string) {
	if f.Model == f.Relation {
		t := TableName(f.Model)
		return t + "_id1", t + "_id2"
	}
	return TableName(f.Model) + "_id", TableName(f.Relation) + "_id"
}

// Snapshot reads the given models, or all models of the schema, into a
// snapshot that can be loaded into a store.
func (d *Driver) Snapshot(ctx context.Context, s *schema.Schema, names ...string) (models.Snapshot, error) {
	return ReadSnapshot(ctx, d, s, names...)
}

// ReadSnapshot reads the given models through drv. Records of a model are
// ordered by id, and every declared many2many field holds the list of
// linked ids.
func ReadSnapshot(ctx context.Context, drv dialect.Driver, s *schema.Schema, names ...string) (models.Snapshot, error) {
	if len(names) == 0 {
		names = s.Models()
	}
	snap := make(models.Snapshot, len(names))
	for _, name := range names {
		m, ok := s.Model(name)
		if !ok {
			return nil, related.NewSchemaError(name, "", "unknown model")
		}
		records, err := readModel(ctx, drv, m)
		if err != nil {
			return nil, err
		}
		snap[name] = records
	}
	return snap, nil
}

func readModel(ctx context.Context, drv dialect.Driver, m *schema.Model) ([]models.Values, error) {
	table := TableName(m.Name)
	if !isValidIdentifier(table) {
		return nil, fmt.Errorf("dialect/sql: invalid table name %q", table)
	}
	columns := []*field.Descriptor{{Name: "id", Type: field.TypeInteger}}
	for _, f := range m.Fields {
		if f.Name == "id" || !Stored(f) {
			continue
		}
		if !isValidIdentifier(f.Name) {
			return nil, fmt.Errorf("dialect/sql: invalid column name %q of %s", f.Name, m.Name)
		}
		columns = append(columns, f)
	}
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = dialect.Quote(drv.Dialect(), c.Name)
	}
	id := dialect.Quote(drv.Dialect(), "id")
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(quoted, ", "), dialect.Quote(drv.Dialect(), table), id)

	var records []models.Values
	byID := make(map[int64]models.Values)
	err := scan(ctx, drv, query, len(columns), func(row []any) error {
		vals := make(models.Values, len(columns))
		for i, c := range columns {
			v, err := convert(c, row[i])
			if err != nil {
				return fmt.Errorf("dialect/sql: %s.%s: %w", m.Name, c.Name, err)
			}
			vals[c.Name] = v
		}
		n, ok := vals["id"].(int64)
		if !ok {
			return fmt.Errorf("dialect/sql: %s: record without id", m.Name)
		}
		records = append(records, vals)
		byID[n] = vals
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, f := range m.Fields {
		if f.Type != field.TypeMany2Many || f.IsDummy() || f.ClientOnly() || f.RelationTable == "" {
			continue
		}
		for _, vals := range records {
			vals[f.Name] = []any{}
		}
		if err := readRelation(ctx, drv, f, byID); err != nil {
			return nil, err
		}
	}
	return records, nil
}

func readRelation(ctx context.Context, drv dialect.Driver, f *field.Descriptor, byID map[int64]models.Values) error {
	owner, target := RelationColumns(f)
	for _, ident := range []string{f.RelationTable, owner, target} {
		if !isValidIdentifier(ident) {
			return fmt.Errorf("dialect/sql: invalid identifier %q of %s.%s", ident, f.Model, f.Name)
		}
	}
	q := func(s string) string { return dialect.Quote(drv.Dialect(), s) }
	query := fmt.Sprintf("SELECT %s, %s FROM %s ORDER BY %s, %s",
		q(owner), q(target), q(f.RelationTable), q(owner), q(target))
	return scan(ctx, drv, query, 2, func(row []any) error {
		from, ok1 := toInt(row[0])
		to, ok2 := toInt(row[1])
		if !ok1 || !ok2 {
			return fmt.Errorf("dialect/sql: %s: non integer relation row %v", f.RelationTable, row)
		}
		vals, ok := byID[from]
		if !ok {
			return nil
		}
		vals[f.Name] = append(vals[f.Name].([]any), to)
		return nil
	})
}

func scan(ctx context.Context, drv dialect.Driver, query string, n int, fn func([]any) error) (rerr error) {
	rows := &Rows{}
	if err := drv.Query(ctx, query, []any{}, rows); err != nil {
		return err
	}
	defer func() { rerr = errors.Join(rerr, rows.Close()) }()
	for rows.Next() {
		row := make([]any, n)
		dest := make([]any, n)
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("dialect/sql: scan: %w", err)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// convert turns a column value into the value a server payload carries.
// NULL is false, like unset fields of the server.
func convert(f *field.Descriptor, v any) (any, error) {
	if b, ok := v.([]byte); ok {
		v = string(b)
	}
	if v == nil {
		return false, nil
	}
	switch f.Type {
	case field.TypeInteger, field.TypeMany2One:
		n, ok := toInt(v)
		if !ok {
			return nil, fmt.Errorf("unexpected %T value for %s", v, f.Type)
		}
		return n, nil
	case field.TypeFloat, field.TypeMonetary:
		switch v := v.(type) {
		case float64:
			return v, nil
		case float32:
			return float64(v), nil
		case int64:
			return float64(v), nil
		case string:
			return strconv.ParseFloat(v, 64)
		}
	case field.TypeBoolean:
		switch v := v.(type) {
		case bool:
			return v, nil
		case int64:
			return v != 0, nil
		case string:
			return strconv.ParseBool(v)
		}
	case field.TypeDate, field.TypeDatetime:
		if t, ok := v.(time.Time); ok {
			if f.Type == field.TypeDate {
				return t.UTC().Format(DateFormat), nil
			}
			return t.UTC().Format(DatetimeFormat), nil
		}
	}
	return v, nil
}

func toInt(v any) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return 0, false
		}
		return int64(v), true
	case []byte:
		n, err := strconv.ParseInt(string(v), 10, 64)
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}
