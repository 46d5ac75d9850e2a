// Implements the line-oriented snapshot layout:
//
//	aotprof <version>
//	m <count> <method-name>
//	c <count> <class-name>
//
// Output is sorted so that formatting is deterministic.

package profiles

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

const magic = "aotprof"

// Parse decodes a snapshot, keeping only records accepted by filter. Empty
// input decodes as an empty snapshot at the current format version, so a
// freshly created baseline file is valid. Content errors wrap ErrBadFormat;
// reader failures are returned as-is (an I/O problem, not bad content).
func Parse(r io.Reader, filter Filter) (*Data, error) {
	if filter == nil {
		filter = AcceptAll
	}
	data := NewData()

	scanner := bufio.NewScanner(r)
	header := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if !header {
			if len(fields) != 2 || fields[0] != magic {
				return nil, fmt.Errorf("%w: bad header %q", ErrBadFormat, line)
			}
			version, err := strconv.ParseInt(fields[1], 10, 32)
			if err != nil {
				return nil, fmt.Errorf("%w: bad version %q", ErrBadFormat, fields[1])
			}
			data.Version = int32(version)
			header = true
			continue
		}
		if len(fields) != 3 {
			return nil, fmt.Errorf("%w: bad record %q", ErrBadFormat, line)
		}
		count, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || count < 0 {
			return nil, fmt.Errorf("%w: bad count %q", ErrBadFormat, fields[1])
		}
		name := fields[2]
		if !filter(name) {
			continue
		}
		switch fields[0] {
		case "m":
			data.Methods[name] += count
		case "c":
			data.Classes[name] += count
		default:
			return nil, fmt.Errorf("%w: bad record kind %q", ErrBadFormat, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading profile snapshot: %w", err)
	}
	return data, nil
}

// Format writes d in the snapshot layout with records sorted by name.
func Format(w io.Writer, d *Data) error {
	if _, err := fmt.Fprintf(w, "%s %d\n", magic, d.Version); err != nil {
		return fmt.Errorf("writing profile snapshot: %w", err)
	}
	for _, name := range sortedKeys(d.Methods) {
		if _, err := fmt.Fprintf(w, "m %d %s\n", d.Methods[name], name); err != nil {
			return fmt.Errorf("writing profile snapshot: %w", err)
		}
	}
	for _, name := range sortedKeys(d.Classes) {
		if _, err := fmt.Fprintf(w, "c %d %s\n", d.Classes[name], name); err != nil {
			return fmt.Errorf("writing profile snapshot: %w", err)
		}
	}
	return nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
