package formats

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// Color table errors.
var (
	ErrEmptyColorTable = errors.New("color table has no colors")
	ErrInvalidColor    = errors.New("invalid color entry")
)

// ColorTable maps category IDs to RGB colors.
type ColorTable [][3]uint8

// Lookup returns the color of a category.
func (t ColorTable) Lookup(category int) ([3]uint8, bool) {
	if category < 0 || category >= len(t) {
		return [3]uint8{}, false
	}
	return t[category], true
}

type colorFile struct {
	Colors [][]float64 `json:"colors"`
}

// ParseColorTable parses a {"colors": [[r,g,b], ...]} document.
//
// When every component is within [0, 1] the table is taken as normalized
// and scaled to 0-255; otherwise components are 0-255 values.
func ParseColorTable(data []byte) (ColorTable, error) {
	var f colorFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	if len(f.Colors) == 0 {
		return nil, ErrEmptyColorTable
	}

	normalized := true
	for i, c := range f.Colors {
		if len(c) < 3 {
			return nil, fmt.Errorf("%w: entry %d has %d components", ErrInvalidColor, i, len(c))
		}
		for _, v := range c[:3] {
			if v < 0 || v > 255 || math.IsNaN(v) {
				return nil, fmt.Errorf("%w: entry %d component %v", ErrInvalidColor, i, v)
			}
			if v > 1 {
				normalized = false
			}
		}
	}

	scale := 1.0
	if normalized {
		scale = 255
	}
	table := make(ColorTable, len(f.Colors))
	for i, c := range f.Colors {
		for k := 0; k < 3; k++ {
			table[i][k] = uint8(math.Round(c[k] * scale))
		}
	}
	return table, nil
}

// LoadColorTable reads a color table file.
func LoadColorTable(path string) (ColorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := ParseColorTable(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return t, nil
}
