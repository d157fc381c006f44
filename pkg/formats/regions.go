package formats

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// NoRegion is the region ID of panoramas that belong to no region.
const NoRegion = "-1"

// ErrMalformedRegionLine is returned for a non-blank line with fewer than
// three fields.
var ErrMalformedRegionLine = errors.New("malformed panorama_to_region line")

// RegionTable maps viewpoint IDs to region IDs for one scan.
type RegionTable map[string]string

// Region returns the region of a viewpoint.
func (t RegionTable) Region(viewpointID string) (string, bool) {
	r, ok := t[viewpointID]
	return r, ok
}

// ParseRegionTable parses panorama_to_region.txt. Each line is
// "<tag> <viewpointId> <regionId> ..."; only fields two and three are used.
// The first line naming a viewpoint wins.
func ParseRegionTable(r io.Reader) (RegionTable, error) {
	table := make(RegionTable)
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%w: line %d: %q", ErrMalformedRegionLine, lineNo, scanner.Text())
		}
		if _, seen := table[fields[1]]; !seen {
			table[fields[1]] = fields[2]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return table, nil
}

// LoadRegionTable reads panorama_to_region.txt from disk.
func LoadRegionTable(path string) (RegionTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := ParseRegionTable(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}
