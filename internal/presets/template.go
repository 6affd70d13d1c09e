package presets

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Slot is a typed substitution point inside a template.
type Slot int

const (
	SlotNone Slot = iota
	SlotInput
	SlotOutput
	SlotOutputPrefix
)

func (s Slot) String() string {
	switch s {
	case SlotInput:
		return "input"
	case SlotOutput:
		return "output"
	case SlotOutputPrefix:
		return "output-prefix"
	default:
		return "literal"
	}
}

// Arg is one element of a command argument vector: either a literal or a
// slot, optionally followed by a literal suffix (prefix slots only).
type Arg struct {
	Literal string
	Slot    Slot
	Suffix  string
}

func Lit(value string) Arg { return Arg{Literal: value} }

func In() Arg { return Arg{Slot: SlotInput} }

func Out() Arg { return Arg{Slot: SlotOutput} }

func Prefix(suffix string) Arg { return Arg{Slot: SlotOutputPrefix, Suffix: suffix} }

// Bindings supplies the values for a template's slots.
type Bindings struct {
	Input        string
	Output       string
	OutputPrefix string
}

// Template pairs a tool with its argument vector.
type Template struct {
	ID          ID
	Tool        Tool
	Args        []Arg
	Description string
}

// Slots reports the distinct slots the template needs, in first-use order.
func (t Template) Slots() []Slot {
	var out []Slot
	for _, arg := range t.Args {
		if arg.Slot == SlotNone {
			continue
		}
		if !slices.Contains(out, arg.Slot) {
			out = append(out, arg.Slot)
		}
	}
	return out
}

// Build substitutes bindings and returns the argument vector handed to the
// tool. Values are placed verbatim as single arguments; nothing is parsed by
// a shell.
func (t Template) Build(b Bindings) ([]string, error) {
	args := make([]string, 0, len(t.Args))
	for _, arg := range t.Args {
		var value string
		switch arg.Slot {
		case SlotNone:
			args = append(args, arg.Literal)
			continue
		case SlotInput:
			value = b.Input
		case SlotOutput:
			value = b.Output
		case SlotOutputPrefix:
			value = b.OutputPrefix
		default:
			return nil, fmt.Errorf("preset %s: unknown slot %d", t.ID, arg.Slot)
		}
		if strings.TrimSpace(value) == "" {
			return nil, fmt.Errorf("preset %s: %w: %s", t.ID, ErrUnboundSlot, arg.Slot)
		}
		args = append(args, value+arg.Suffix)
	}
	return args, nil
}

// Render is a display-only form of the command line.
func (t Template) Render() string {
	parts := []string{string(t.Tool)}
	for _, arg := range t.Args {
		if arg.Slot == SlotNone {
			parts = append(parts, arg.Literal)
			continue
		}
		parts = append(parts, "{"+arg.Slot.String()+"}"+arg.Suffix)
	}
	return strings.Join(parts, " ")
}

// ErrUnboundSlot reports a template slot with no value.
var ErrUnboundSlot = errors.New("unbound slot")
