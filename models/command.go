package models

import (
	"fmt"

	"github.com/syssam/related"
)

// Op is a relational mutation applied to an x2many field.
type Op string

// Relational operations.
const (
	OpCreate Op = "create"
	OpLink   Op = "link"
	OpUnlink Op = "unlink"
	OpClear  Op = "clear"
	OpSet    Op = "set"
)

// Command describes a relational mutation of an x2many field. Items are
// records, record identifiers, or Values for OpCreate.
type Command struct {
	Op    Op
	Items []any
}

// Create returns a command creating comodel records and linking them.
func Create(vals ...Values) Command {
	items := make([]any, len(vals))
	for i, v := range vals {
		items[i] = v
	}
	return Command{Op: OpCreate, Items: items}
}

// Link returns a command linking existing records.
func Link(records ...any) Command { return Command{Op: OpLink, Items: records} }

// Unlink returns a command removing records from the collection.
func Unlink(records ...any) Command { return Command{Op: OpUnlink, Items: records} }

// Clear returns a command emptying the collection.
func Clear() Command { return Command{Op: OpClear} }

// Set returns a command replacing the collection with the given records.
func Set(records ...any) Command { return Command{Op: OpSet, Items: records} }

// Remote write-protocol command codes.
const (
	wireCreate = 0
	wireUpdate = 1
	wireDelete = 2
	wireUnlink = 3
	wireLink   = 4
)

// asCommands normalizes an x2many input value. Plain lists of records or
// identifiers link them; wire-style tuples ("link", a, b) are accepted too.
func asCommands(v any) ([]Command, error) {
	switch v := v.(type) {
	case nil:
		return nil, nil
	case Command:
		return []Command{v}, nil
	case []Command:
		return v, nil
	case []*Record:
		items := make([]any, len(v))
		for i, r := range v {
			items[i] = r
		}
		return []Command{Link(items...)}, nil
	case []any:
		if len(v) == 0 {
			return nil, nil
		}
		if cmd, ok, err := tupleCommand(v); ok || err != nil {
			return []Command{cmd}, err
		}
		var cmds []Command
		for _, item := range v {
			tuple, isTuple := item.([]any)
			if !isTuple {
				ids := idList(v)
				items := make([]any, len(ids))
				for i, id := range ids {
					items[i] = id
				}
				return []Command{Link(items...)}, nil
			}
			cmd, ok, err := tupleCommand(tuple)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, fmt.Errorf("invalid relational command %v", tuple)
			}
			cmds = append(cmds, cmd)
		}
		return cmds, nil
	}
	ids := idList(v)
	items := make([]any, len(ids))
	for i, id := range ids {
		items[i] = id
	}
	return []Command{Link(items...)}, nil
}

func tupleCommand(tuple []any) (Command, bool, error) {
	if len(tuple) == 0 {
		return Command{}, false, nil
	}
	name, ok := tuple[0].(string)
	if !ok {
		return Command{}, false, nil
	}
	op := Op(name)
	switch op {
	case OpCreate, OpLink, OpUnlink, OpClear, OpSet:
	default:
		if _, isID := related.ParseID(name); isID {
			return Command{}, false, nil
		}
		return Command{}, false, fmt.Errorf("unknown relational command %q", name)
	}
	items := tuple[1:]
	if op == OpCreate {
		for i, item := range items {
			if m, ok := item.(map[string]any); ok {
				items[i] = Values(m)
			}
		}
	}
	return Command{Op: op, Items: items}, true, nil
}
