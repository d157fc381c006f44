package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic       = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat  = errors.New("unsupported PLY format")
	ErrInvalidPLYHeader      = errors.New("invalid PLY header")
	ErrTruncatedPLYData      = errors.New("truncated PLY data")
	ErrInvalidPLYBody        = errors.New("invalid PLY body")
	ErrUnknownPLYElement     = errors.New("unknown PLY element")
	ErrUnsupportedPLYType    = errors.New("unsupported PLY property type")
	ErrMissingPLYProperty    = errors.New("missing PLY property")
	ErrInconsistentPLYColumn = errors.New("PLY column length does not match element count")
)

// PLYFormat is the body encoding of a PLY file.
type PLYFormat string

// Supported body encodings.
const (
	PLYASCII           PLYFormat = "ascii"
	PLYBinaryLittleEnd PLYFormat = "binary_little_endian"
	PLYBinaryBigEnd    PLYFormat = "binary_big_endian"
)

// Valid reports whether f is a known encoding.
func (f PLYFormat) Valid() bool {
	switch f {
	case PLYASCII, PLYBinaryLittleEnd, PLYBinaryBigEnd:
		return true
	}
	return false
}

func (f PLYFormat) byteOrder() binary.ByteOrder {
	if f == PLYBinaryBigEnd {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// PLYProperty describes one property of an element.
// For list properties CountType is the type of the length prefix and Type
// is the type of each item.
type PLYProperty struct {
	Name      string
	Type      string
	IsList    bool
	CountType string
}

// PLYElement is one element block with its decoded data.
// Scalar properties are stored in Scalars, list properties in Lists,
// both keyed by property name and indexed by element number.
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
	Scalars    map[string][]float64
	Lists      map[string][][]int64
}

// Property returns the named property descriptor.
func (e *PLYElement) Property(name string) (PLYProperty, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PLYProperty{}, false
}

// Scalar returns the named scalar column.
func (e *PLYElement) Scalar(name string) ([]float64, error) {
	col, ok := e.Scalars[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrMissingPLYProperty, e.Name, name)
	}
	return col, nil
}

// List returns the first list column found among names.
func (e *PLYElement) List(names ...string) ([][]int64, error) {
	for _, name := range names {
		if col, ok := e.Lists[name]; ok {
			return col, nil
		}
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrMissingPLYProperty, e.Name, strings.Join(names, "|"))
}

// PLY is a parsed Stanford polygon file.
type PLY struct {
	Format   PLYFormat
	Version  string
	Comments []string
	Elements []*PLYElement
}

// Element returns the named element, or nil.
func (p *PLY) Element(name string) *PLYElement {
	for _, e := range p.Elements {
		if e.Name == name {
			return e
		}
	}
	return nil
}

// AddElement appends a new element with the given properties and returns it.
func (p *PLY) AddElement(name string, count int, props ...PLYProperty) *PLYElement {
	e := &PLYElement{
		Name:       name,
		Count:      count,
		Properties: props,
		Scalars:    make(map[string][]float64),
		Lists:      make(map[string][][]int64),
	}
	p.Elements = append(p.Elements, e)
	return e
}

// plyTypeSize maps PLY scalar type names to their byte sizes.
var plyTypeSize = map[string]int{
	"char": 1, "int8": 1,
	"uchar": 1, "uint8": 1,
	"short": 2, "int16": 2,
	"ushort": 2, "uint16": 2,
	"int": 4, "int32": 4,
	"uint": 4, "uint32": 4,
	"float": 4, "float32": 4,
	"double": 8, "float64": 8,
}

// LoadPLY reads and parses a PLY file from disk.
func LoadPLY(path string) (*PLY, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ply, err := ParsePLY(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return ply, nil
}

// ParsePLY parses a PLY file from raw bytes.
func ParsePLY(data []byte) (*PLY, error) {
	ply, bodyOffset, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	body := data[bodyOffset:]
	switch ply.Format {
	case PLYASCII:
		err = decodeASCIIBody(ply, body)
	default:
		err = decodeBinaryBody(ply, body)
	}
	if err != nil {
		return nil, err
	}
	return ply, nil
}

// parsePLYHeader parses the header and returns the offset of the body.
func parsePLYHeader(data []byte) (*PLY, int, error) {
	ply := &PLY{}
	offset := 0
	var current *PLYElement

	nextLine := func() (string, bool) {
		if offset >= len(data) {
			return "", false
		}
		end := bytes.IndexByte(data[offset:], '\n')
		var line []byte
		if end < 0 {
			line = data[offset:]
			offset = len(data)
		} else {
			line = data[offset : offset+end]
			offset += end + 1
		}
		return strings.TrimRight(string(line), "\r"), true
	}

	magic, ok := nextLine()
	if !ok || strings.TrimSpace(magic) != "ply" {
		return nil, 0, ErrInvalidPLYMagic
	}

	for {
		line, ok := nextLine()
		if !ok {
			return nil, 0, fmt.Errorf("%w: missing end_header", ErrInvalidPLYHeader)
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 3 {
				return nil, 0, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			ply.Format = PLYFormat(fields[1])
			ply.Version = fields[2]
			if !ply.Format.Valid() {
				return nil, 0, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, fields[1])
			}
		case "comment":
			ply.Comments = append(ply.Comments, strings.TrimSpace(strings.TrimPrefix(line, "comment")))
		case "obj_info":
			// ignored
		case "element":
			if len(fields) != 3 {
				return nil, 0, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, 0, fmt.Errorf("%w: element count %q", ErrInvalidPLYHeader, fields[2])
			}
			current = ply.AddElement(fields[1], count)
		case "property":
			if current == nil {
				return nil, 0, fmt.Errorf("%w: property before element", ErrInvalidPLYHeader)
			}
			prop, err := parsePLYProperty(fields)
			if err != nil {
				return nil, 0, err
			}
			current.Properties = append(current.Properties, prop)
		case "end_header":
			if ply.Format == "" {
				return nil, 0, fmt.Errorf("%w: missing format line", ErrInvalidPLYHeader)
			}
			return ply, offset, nil
		default:
			return nil, 0, fmt.Errorf("%w: unknown keyword %q", ErrInvalidPLYHeader, fields[0])
		}
	}
}

func parsePLYProperty(fields []string) (PLYProperty, error) {
	if len(fields) >= 5 && fields[1] == "list" {
		if _, ok := plyTypeSize[fields[2]]; !ok {
			return PLYProperty{}, fmt.Errorf("%w: %s", ErrUnsupportedPLYType, fields[2])
		}
		if _, ok := plyTypeSize[fields[3]]; !ok {
			return PLYProperty{}, fmt.Errorf("%w: %s", ErrUnsupportedPLYType, fields[3])
		}
		return PLYProperty{Name: fields[4], Type: fields[3], IsList: true, CountType: fields[2]}, nil
	}
	if len(fields) != 3 {
		return PLYProperty{}, fmt.Errorf("%w: %q", ErrInvalidPLYHeader, strings.Join(fields, " "))
	}
	if _, ok := plyTypeSize[fields[1]]; !ok {
		return PLYProperty{}, fmt.Errorf("%w: %s", ErrUnsupportedPLYType, fields[1])
	}
	return PLYProperty{Name: fields[2], Type: fields[1]}, nil
}

// allocate prepares the data columns of every element.
func (p *PLY) allocate() {
	for _, e := range p.Elements {
		e.Scalars = make(map[string][]float64)
		e.Lists = make(map[string][][]int64)
		for _, prop := range e.Properties {
			if prop.IsList {
				e.Lists[prop.Name] = make([][]int64, e.Count)
			} else {
				e.Scalars[prop.Name] = make([]float64, e.Count)
			}
		}
	}
}

func decodeBinaryBody(ply *PLY, body []byte) error {
	ply.allocate()
	order := ply.Format.byteOrder()
	r := bytes.NewReader(body)

	for _, e := range ply.Elements {
		for i := 0; i < e.Count; i++ {
			for _, prop := range e.Properties {
				if !prop.IsList {
					v, err := readPLYScalar(r, order, prop.Type)
					if err != nil {
						return fmt.Errorf("%w: %s[%d].%s", ErrTruncatedPLYData, e.Name, i, prop.Name)
					}
					e.Scalars[prop.Name][i] = v
					continue
				}

				n, err := readPLYScalar(r, order, prop.CountType)
				if err != nil {
					return fmt.Errorf("%w: %s[%d].%s count", ErrTruncatedPLYData, e.Name, i, prop.Name)
				}
				if n < 0 {
					return fmt.Errorf("%w: negative list length in %s[%d]", ErrInvalidPLYBody, e.Name, i)
				}
				items := make([]int64, int(n))
				for k := range items {
					v, err := readPLYScalar(r, order, prop.Type)
					if err != nil {
						return fmt.Errorf("%w: %s[%d].%s item %d", ErrTruncatedPLYData, e.Name, i, prop.Name, k)
					}
					items[k] = int64(v)
				}
				e.Lists[prop.Name][i] = items
			}
		}
	}
	return nil
}

func readPLYScalar(r io.Reader, order binary.ByteOrder, typ string) (float64, error) {
	var buf [8]byte
	size := plyTypeSize[typ]
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		return 0, err
	}
	switch typ {
	case "char", "int8":
		return float64(int8(buf[0])), nil
	case "uchar", "uint8":
		return float64(buf[0]), nil
	case "short", "int16":
		return float64(int16(order.Uint16(buf[:2]))), nil
	case "ushort", "uint16":
		return float64(order.Uint16(buf[:2])), nil
	case "int", "int32":
		return float64(int32(order.Uint32(buf[:4]))), nil
	case "uint", "uint32":
		return float64(order.Uint32(buf[:4])), nil
	case "float", "float32":
		return float64(math.Float32frombits(order.Uint32(buf[:4]))), nil
	case "double", "float64":
		return math.Float64frombits(order.Uint64(buf[:8])), nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedPLYType, typ)
}

// Write encodes the PLY in its Format.
func (p *PLY) Write(w io.Writer) error {
	if !p.Format.Valid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedPLYFormat, p.Format)
	}
	for _, e := range p.Elements {
		for _, prop := range e.Properties {
			var n int
			if prop.IsList {
				n = len(e.Lists[prop.Name])
			} else {
				n = len(e.Scalars[prop.Name])
			}
			if n != e.Count {
				return fmt.Errorf("%w: %s.%s has %d values, want %d", ErrInconsistentPLYColumn, e.Name, prop.Name, n, e.Count)
			}
		}
	}

	bw := bufio.NewWriter(w)
	if err := p.writeHeader(bw); err != nil {
		return err
	}

	var err error
	if p.Format == PLYASCII {
		err = p.writeASCIIBody(bw)
	} else {
		err = p.writeBinaryBody(bw)
	}
	if err != nil {
		return err
	}
	return bw.Flush()
}

func (p *PLY) writeHeader(w io.Writer) error {
	version := p.Version
	if version == "" {
		version = "1.0"
	}
	var sb strings.Builder
	sb.WriteString("ply\n")
	fmt.Fprintf(&sb, "format %s %s\n", p.Format, version)
	for _, c := range p.Comments {
		fmt.Fprintf(&sb, "comment %s\n", c)
	}
	for _, e := range p.Elements {
		fmt.Fprintf(&sb, "element %s %d\n", e.Name, e.Count)
		for _, prop := range e.Properties {
			if prop.IsList {
				fmt.Fprintf(&sb, "property list %s %s %s\n", prop.CountType, prop.Type, prop.Name)
			} else {
				fmt.Fprintf(&sb, "property %s %s\n", prop.Type, prop.Name)
			}
		}
	}
	sb.WriteString("end_header\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

func (p *PLY) writeBinaryBody(w io.Writer) error {
	order := p.Format.byteOrder()
	var buf [8]byte
	put := func(typ string, v float64) error {
		size := plyTypeSize[typ]
		switch typ {
		case "char", "int8":
			buf[0] = byte(int8(v))
		case "uchar", "uint8":
			buf[0] = uint8(v)
		case "short", "int16":
			order.PutUint16(buf[:2], uint16(int16(v)))
		case "ushort", "uint16":
			order.PutUint16(buf[:2], uint16(v))
		case "int", "int32":
			order.PutUint32(buf[:4], uint32(int32(v)))
		case "uint", "uint32":
			order.PutUint32(buf[:4], uint32(v))
		case "float", "float32":
			order.PutUint32(buf[:4], math.Float32bits(float32(v)))
		case "double", "float64":
			order.PutUint64(buf[:8], math.Float64bits(v))
		default:
			return fmt.Errorf("%w: %s", ErrUnsupportedPLYType, typ)
		}
		_, err := w.Write(buf[:size])
		return err
	}

	for _, e := range p.Elements {
		for i := 0; i < e.Count; i++ {
			for _, prop := range e.Properties {
				if !prop.IsList {
					if err := put(prop.Type, e.Scalars[prop.Name][i]); err != nil {
						return err
					}
					continue
				}
				items := e.Lists[prop.Name][i]
				if err := put(prop.CountType, float64(len(items))); err != nil {
					return err
				}
				for _, item := range items {
					if err := put(prop.Type, float64(item)); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (p *PLY) writeASCIIBody(w io.Writer) error {
	var fields []string
	for _, e := range p.Elements {
		for i := 0; i < e.Count; i++ {
			fields = fields[:0]
			for _, prop := range e.Properties {
				if !prop.IsList {
					fields = append(fields, formatPLYValue(prop.Type, e.Scalars[prop.Name][i]))
					continue
				}
				items := e.Lists[prop.Name][i]
				fields = append(fields, strconv.Itoa(len(items)))
				for _, item := range items {
					fields = append(fields, strconv.FormatInt(item, 10))
				}
			}
			if _, err := io.WriteString(w, strings.Join(fields, " ")+"\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

func formatPLYValue(typ string, v float64) string {
	switch typ {
	case "float", "float32":
		return strconv.FormatFloat(v, 'g', -1, 32)
	case "double", "float64":
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return strconv.FormatInt(int64(v), 10)
	}
}
