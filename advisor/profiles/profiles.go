// Package profiles implements the runtime execution-profile store consumed by
// the profile-change gate: a snapshot data model, a line-oriented codec, a
// counter-accumulating merge, and the change percentages that drive the
// significance test.
package profiles

import "errors"

// FormatVersion is the snapshot format version this package writes.
const FormatVersion int32 = 1

// ErrBadFormat reports structurally invalid snapshot content, as opposed to a
// failure to read the underlying bytes.
var ErrBadFormat = errors.New("malformed profile snapshot")

// ErrVersionMismatch reports a merge across differing snapshot versions
// without coercion enabled.
var ErrVersionMismatch = errors.New("profile snapshot version mismatch")

// Data is one parsed profile snapshot: sample counters keyed by method and
// class name.
type Data struct {
	Version int32
	Methods map[string]int64
	Classes map[string]int64
}

// NewData creates an empty snapshot at the current format version.
func NewData() *Data {
	return &Data{
		Version: FormatVersion,
		Methods: make(map[string]int64),
		Classes: make(map[string]int64),
	}
}

// Clone returns a deep copy of d.
func (d *Data) Clone() *Data {
	c := &Data{
		Version: d.Version,
		Methods: make(map[string]int64, len(d.Methods)),
		Classes: make(map[string]int64, len(d.Classes)),
	}
	for k, v := range d.Methods {
		c.Methods[k] = v
	}
	for k, v := range d.Classes {
		c.Classes[k] = v
	}
	return c
}

// Filter restricts which records a parse considers.
type Filter func(name string) bool

// AcceptAll is the default filter: every record is considered.
func AcceptAll(string) bool { return true }
