package profiles

import "io"

// Store bundles the package operations behind value-receiver methods so the
// gate can consume them as an injected capability (and tests can substitute
// a fake).
type Store struct{}

func (Store) Parse(r io.Reader, filter Filter) (*Data, error) {
	return Parse(r, filter)
}

func (Store) Format(w io.Writer, d *Data) error {
	return Format(w, d)
}

func (Store) Merge(into, from *Data, coerceVersions bool) error {
	return Merge(into, from, coerceVersions)
}

func (Store) NewMethodsPercent(before, after *Data) uint32 {
	return NewMethodsPercent(before, after)
}

func (Store) NewClassesPercent(before, after *Data) uint32 {
	return NewClassesPercent(before, after)
}
