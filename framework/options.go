package framework

import (
	"fmt"
	"sort"
)

// The value kinds a render option can hold.
type OptionKind uint8

const (
	OptionBool OptionKind = iota
	OptionInt
	OptionFloat
	OptionString
)

func (k OptionKind) String() string {
	switch k {
	case OptionBool:
		return "bool"
	case OptionInt:
		return "int"
	case OptionFloat:
		return "float"
	case OptionString:
		return "string"
	}
	return "unknown"
}

// A named, typed configuration value. Options are declared by techniques and
// components during setup and may be mutated at runtime by the UI layer or by
// renderer overrides; every holder of the same name observes the same value.
type Option struct {
	kind OptionKind
	b    bool
	i    int32
	f    float32
	s    string
}

func BoolOption(v bool) Option {
	return Option{kind: OptionBool, b: v}
}

func IntOption(v int32) Option {
	return Option{kind: OptionInt, i: v}
}

func FloatOption(v float32) Option {
	return Option{kind: OptionFloat, f: v}
}

func StringOption(v string) Option {
	return Option{kind: OptionString, s: v}
}

func (o Option) Kind() OptionKind {
	return o.kind
}

// A name-keyed table of render options. Declared during renderer activation,
// read every frame.
type OptionTable struct {
	values map[string]Option
}

func NewOptionTable() *OptionTable {
	return &OptionTable{values: make(map[string]Option)}
}

// Declare adds an option with its default value. Redeclaring an existing name
// with the same kind replaces the default (last writer during setup wins);
// redeclaring with a different kind is a declaration conflict.
func (t *OptionTable) Declare(name string, opt Option) error {
	if existing, ok := t.values[name]; ok && existing.kind != opt.kind {
		return fmt.Errorf("%w: option %q declared as both %s and %s",
			ErrOptionType, name, existing.kind, opt.kind)
	}
	t.values[name] = opt
	return nil
}

// DeclareAll declares every option in the given set.
func (t *OptionTable) DeclareAll(opts map[string]Option) error {
	for name, opt := range opts {
		if err := t.Declare(name, opt); err != nil {
			return err
		}
	}
	return nil
}

// Override replaces the value of an already-declared option. Unknown names and
// kind mismatches are errors; overrides never create new options.
func (t *OptionTable) Override(name string, opt Option) error {
	existing, ok := t.values[name]
	if !ok {
		return fmt.Errorf("%w: cannot override undeclared option %q", ErrOptionUnknown, name)
	}
	if existing.kind != opt.kind {
		return fmt.Errorf("%w: cannot override %s option %q with %s value",
			ErrOptionType, existing.kind, name, opt.kind)
	}
	t.values[name] = opt
	return nil
}

func (t *OptionTable) Has(name string) bool {
	_, ok := t.values[name]
	return ok
}

func (t *OptionTable) Kind(name string) (OptionKind, bool) {
	opt, ok := t.values[name]
	return opt.kind, ok
}

// Bool returns the value of a boolean option, or the zero value if the option
// is absent or holds a different kind.
func (t *OptionTable) Bool(name string) bool {
	if opt, ok := t.values[name]; ok && opt.kind == OptionBool {
		return opt.b
	}
	return false
}

func (t *OptionTable) Int(name string) int32 {
	if opt, ok := t.values[name]; ok && opt.kind == OptionInt {
		return opt.i
	}
	return 0
}

func (t *OptionTable) Float(name string) float32 {
	if opt, ok := t.values[name]; ok && opt.kind == OptionFloat {
		return opt.f
	}
	return 0
}

func (t *OptionTable) String(name string) string {
	if opt, ok := t.values[name]; ok && opt.kind == OptionString {
		return opt.s
	}
	return ""
}

func (t *OptionTable) SetBool(name string, v bool) error {
	return t.Override(name, BoolOption(v))
}

func (t *OptionTable) SetInt(name string, v int32) error {
	return t.Override(name, IntOption(v))
}

func (t *OptionTable) SetFloat(name string, v float32) error {
	return t.Override(name, FloatOption(v))
}

func (t *OptionTable) SetString(name string, v string) error {
	return t.Override(name, StringOption(v))
}

// Names returns all declared option names in sorted order.
func (t *OptionTable) Names() []string {
	names := make([]string, 0, len(t.values))
	for name := range t.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Clear removes every declared option. Used on renderer switch.
func (t *OptionTable) Clear() {
	t.values = make(map[string]Option)
}
