package profiles

import "fmt"

// Merge folds from into into: the union of method and class records with
// sample counters accumulated. Differing versions abort with
// ErrVersionMismatch unless coerceVersions is set, in which case into keeps
// its own version and records merge best-effort (the boot-image merge mode).
func Merge(into, from *Data, coerceVersions bool) error {
	if into.Version != from.Version && !coerceVersions {
		return fmt.Errorf("%w: %d vs %d", ErrVersionMismatch, into.Version, from.Version)
	}
	for name, count := range from.Methods {
		into.Methods[name] += count
	}
	for name, count := range from.Classes {
		into.Classes[name] += count
	}
	return nil
}

// NewMethodsPercent returns the percentage of method records present in after
// but absent from before, relative to before's method count. An empty before
// with any new records counts as fully changed.
func NewMethodsPercent(before, after *Data) uint32 {
	return newPercent(before.Methods, after.Methods)
}

// NewClassesPercent is NewMethodsPercent over class records.
func NewClassesPercent(before, after *Data) uint32 {
	return newPercent(before.Classes, after.Classes)
}

func newPercent(before, after map[string]int64) uint32 {
	added := 0
	for name := range after {
		if _, ok := before[name]; !ok {
			added++
		}
	}
	if added == 0 {
		return 0
	}
	if len(before) == 0 {
		return 100
	}
	return uint32(added * 100 / len(before))
}
