package formats

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/chenzhekl/goply"
)

// canonicalPLYType maps sized type aliases to the original PLY names.
var canonicalPLYType = map[string]string{
	"int8": "char", "uint8": "uchar",
	"int16": "short", "uint16": "ushort",
	"int32": "int", "uint32": "uint",
	"float32": "float", "float64": "double",
}

func canonicalType(typ string) string {
	if c, ok := canonicalPLYType[typ]; ok {
		return c
	}
	return typ
}

// decodeASCIIBody decodes an ASCII body with goply. The header is rebuilt
// from the parsed schema so that keywords goply does not know (obj_info,
// sized type aliases) never reach it.
func decodeASCIIBody(ply *PLY, body []byte) (err error) {
	ply.allocate()

	var src bytes.Buffer
	src.WriteString("ply\nformat ascii 1.0\n")
	for _, e := range ply.Elements {
		fmt.Fprintf(&src, "element %s %d\n", e.Name, e.Count)
		for _, prop := range e.Properties {
			if prop.IsList {
				fmt.Fprintf(&src, "property list %s %s %s\n", canonicalType(prop.CountType), canonicalType(prop.Type), prop.Name)
			} else {
				fmt.Fprintf(&src, "property %s %s\n", canonicalType(prop.Type), prop.Name)
			}
		}
	}
	src.WriteString("end_header\n")
	for _, line := range strings.Split(string(body), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		src.WriteString(line)
		src.WriteByte('\n')
	}

	// goply reports malformed input by panicking.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInvalidPLYBody, r)
		}
	}()
	parsed := goply.New(&src)

	for _, e := range ply.Elements {
		rows := parsed.Elements(e.Name)
		if len(rows) != e.Count {
			return fmt.Errorf("%w: %s has %d rows, want %d", ErrTruncatedPLYData, e.Name, len(rows), e.Count)
		}
		for i := range rows {
			for _, prop := range e.Properties {
				raw := rows[i].Property(prop.Name)
				if !prop.IsList {
					v, ok := plyNumber(raw)
					if !ok {
						return fmt.Errorf("%w: %s[%d].%s", ErrInvalidPLYBody, e.Name, i, prop.Name)
					}
					e.Scalars[prop.Name][i] = v
					continue
				}
				list, ok := raw.([]interface{})
				if !ok {
					return fmt.Errorf("%w: %s[%d].%s is not a list", ErrInvalidPLYBody, e.Name, i, prop.Name)
				}
				items := make([]int64, len(list))
				for k, item := range list {
					v, ok := plyNumber(item)
					if !ok {
						return fmt.Errorf("%w: %s[%d].%s item %d", ErrInvalidPLYBody, e.Name, i, prop.Name, k)
					}
					items[k] = int64(v)
				}
				e.Lists[prop.Name][i] = items
			}
		}
	}
	return nil
}

func plyNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int8:
		return float64(n), true
	case uint8:
		return float64(n), true
	case int16:
		return float64(n), true
	case uint16:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
