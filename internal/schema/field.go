// Package schema describes the configurable attributes of a proxy protocol
// and normalizes the loosely typed raw values that arrive from forms, links
// and imported documents.
package schema

// Kind is the logical value kind of a field.
type Kind string

const (
	KindText    Kind = "text"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindEnum    Kind = "enum"
	KindObject  Kind = "json-object"
	KindArray   Kind = "json-array"
)

// Condition makes a field visible only while another field holds one of the
// accepted values. It drives form display and never filters serialization.
type Condition struct {
	Field  string
	Values []string
}

// Matches reports whether fields currently satisfy the condition.
func (c Condition) Matches(fields Fields) bool {
	current := String(fields[c.Field])
	if current == "" {
		// unset toggles read as off
		current = "false"
	}
	for _, v := range c.Values {
		if v == current {
			return true
		}
	}
	return false
}

// Field is one configurable attribute. ID doubles as the output key unless
// the protocol renames it while synthesizing.
type Field struct {
	ID          string
	Kind        Kind
	Default     any
	Required    bool
	Options     []string
	VisibleWhen *Condition
}

func Text(id string) Field   { return Field{ID: id, Kind: KindText} }
func Number(id string) Field { return Field{ID: id, Kind: KindNumber} }
func Bool(id string) Field   { return Field{ID: id, Kind: KindBoolean} }
func Object(id string) Field { return Field{ID: id, Kind: KindObject} }
func Array(id string) Field  { return Field{ID: id, Kind: KindArray} }

func Enum(id string, options ...string) Field {
	return Field{ID: id, Kind: KindEnum, Options: options}
}

// Mandatory marks the field as required at admission time.
func (f Field) Mandatory() Field {
	f.Required = true
	return f
}

func (f Field) WithDefault(v any) Field {
	f.Default = v
	return f
}

// When attaches a visibility condition on another field.
func (f Field) When(field string, values ...string) Field {
	f.VisibleWhen = &Condition{Field: field, Values: values}
	return f
}

// Visible reports whether the field should be offered for the given values.
func (f Field) Visible(fields Fields) bool {
	if f.VisibleWhen == nil {
		return true
	}
	return f.VisibleWhen.Matches(fields)
}

// Fields maps field ids to raw values. A value may be a scalar, a JSON
// encoded string or an already parsed structure.
type Fields map[string]any

// Present reports whether id carries a non-empty value.
func (f Fields) Present(id string) bool {
	return ShapeOf(f[id]) != ShapeEmpty
}

// Clone returns a shallow copy.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}
