package builder

import (
	"fmt"

	"situationroom/internal/fieldkind"
)

// Op is one serialized builder action, as posted by editing clients
type Op struct {
	Op    string         `json:"op"`
	Type  fieldkind.Type `json:"type,omitempty"`
	Key   string         `json:"key,omitempty"`
	At    *int           `json:"at,omitempty"`
	From  int            `json:"from,omitempty"`
	To    int            `json:"to,omitempty"`
	Index int            `json:"index,omitempty"`
	Value string         `json:"value,omitempty"`
	Dir   string         `json:"dir,omitempty"`
	Patch *FieldPatch    `json:"patch,omitempty"`
}

func (o Op) at() int {
	if o.At == nil {
		return -1
	}
	return *o.At
}

// Apply runs ops in order and stops at the first failure. Ops applied before
// the failure stay applied.
func (b *Builder) Apply(ops []Op) error {
	for i, op := range ops {
		if err := b.apply(op); err != nil {
			return fmt.Errorf("op %d (%s): %w", i, op.Op, err)
		}
	}
	return nil
}

func (b *Builder) apply(op Op) error {
	switch op.Op {
	case "add":
		b.AddField(op.Type, op.at())
	case "insert":
		b.InsertFromPalette(op.Type, op.at())
	case "remove":
		return b.RemoveField(op.Key)
	case "update":
		if op.Patch == nil {
			return nil
		}
		return b.UpdateField(op.Key, *op.Patch)
	case "move":
		b.MoveField(op.From, op.To)
	case "select":
		return b.Select(op.Key)
	case "add_option":
		return b.AddOption(op.Key)
	case "set_option":
		return b.SetOption(op.Key, op.Index, op.Value)
	case "remove_option":
		return b.RemoveOption(op.Key, op.Index)
	case "move_option":
		switch op.Dir {
		case "up":
			return b.MoveOption(op.Key, op.Index, -1)
		case "down":
			return b.MoveOption(op.Key, op.Index, 1)
		default:
			return fmt.Errorf("direction must be up or down, got %q", op.Dir)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownOp, op.Op)
	}
	return nil
}
