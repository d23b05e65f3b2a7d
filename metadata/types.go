package metadata

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Type categories group concrete column types.
const (
	CategoryInteger   = "integer"
	CategoryFloat     = "float"
	CategoryDecimal   = "decimal"
	CategoryString    = "string"
	CategoryTimestamp = "timestamp"
	CategoryBinary    = "binary"
	CategoryBoolean   = "boolean"
	CategoryList      = "list"
	CategoryStruct    = "struct"
	CategoryMap       = "map"
	CategoryNull      = "null"
)

// DefaultTypes is the type assigned to a column that only declares its category.
// Nested categories (list, struct, map) have no default.
var DefaultTypes = map[string]string{
	CategoryInteger:   "int64",
	CategoryFloat:     "float64",
	CategoryDecimal:   "decimal128(38,0)",
	CategoryString:    "string",
	CategoryTimestamp: "timestamp(s)",
	CategoryBinary:    "binary",
	CategoryBoolean:   "bool",
	CategoryNull:      "null",
}

var simpleTypes = map[string]string{
	"null":         CategoryNull,
	"bool":         CategoryBoolean,
	"int8":         CategoryInteger,
	"int16":        CategoryInteger,
	"int32":        CategoryInteger,
	"int64":        CategoryInteger,
	"uint8":        CategoryInteger,
	"uint16":       CategoryInteger,
	"uint32":       CategoryInteger,
	"uint64":       CategoryInteger,
	"float16":      CategoryFloat,
	"float32":      CategoryFloat,
	"float64":      CategoryFloat,
	"date32":       CategoryTimestamp,
	"date64":       CategoryTimestamp,
	"string":       CategoryString,
	"large_string": CategoryString,
	"utf8":         CategoryString,
	"large_utf8":   CategoryString,
	"large_binary": CategoryBinary,
}

var timeUnits = map[string][]string{
	"time32":    {"s", "ms"},
	"time64":    {"us", "ns"},
	"timestamp": {"s", "ms", "us", "ns"},
}

// DataType is the parsed form of a column type string, e.g. "list<struct<a:int64>>".
type DataType struct {
	Name      string    // base type name, e.g. int64, decimal128, timestamp, list, struct, map_
	Precision int       // decimal128 precision
	Scale     int       // decimal128 scale
	Unit      string    // time32, time64 and timestamp unit
	Width     int       // fixed width binary(n), 0 when variable
	Elem      *DataType // list and large_list element
	Fields    []Field   // struct fields
	Key       *DataType // map_ key
	Value     *DataType // map_ value
}

// Field is a named member of a struct type.
type Field struct {
	Name string
	Type *DataType
}

// ParseType parses a mojap type string.
func ParseType(s string) (*DataType, error) {
	p := &typeParser{src: s}
	p.next()
	dt, err := p.parseType()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid type %q", s)
	}
	if p.tok != "" {
		return nil, fmt.Errorf("invalid type %q: unexpected %q at offset %d", s, p.tok, p.tokPos)
	}
	return dt, nil
}

// IsComplex reports whether the type nests other types.
func (t *DataType) IsComplex() bool {
	switch t.Name {
	case "list", "large_list", "struct", "map_":
		return true
	}
	return false
}

// Category returns the type category of the type.
func (t *DataType) Category() string {
	if c, ok := simpleTypes[t.Name]; ok {
		return c
	}
	switch t.Name {
	case "decimal128":
		return CategoryDecimal
	case "time32", "time64", "timestamp":
		return CategoryTimestamp
	case "binary":
		return CategoryBinary
	case "list", "large_list":
		return CategoryList
	case "struct":
		return CategoryStruct
	case "map_":
		return CategoryMap
	}
	return ""
}

// String renders the type in its canonical form.
func (t *DataType) String() string {
	switch t.Name {
	case "decimal128":
		return fmt.Sprintf("decimal128(%d,%d)", t.Precision, t.Scale)
	case "time32", "time64", "timestamp":
		return fmt.Sprintf("%s(%s)", t.Name, t.Unit)
	case "binary":
		if t.Width > 0 {
			return fmt.Sprintf("binary(%d)", t.Width)
		}
		return "binary"
	case "list", "large_list":
		return fmt.Sprintf("%s<%s>", t.Name, t.Elem)
	case "struct":
		fields := make([]string, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = f.Name + ":" + f.Type.String()
		}
		return "struct<" + strings.Join(fields, ", ") + ">"
	case "map_":
		return fmt.Sprintf("map_<%s, %s>", t.Key, t.Value)
	}
	return t.Name
}

// UnpackType parses a type and returns it as nested generic values,
// suitable for JSON or YAML encoding.  Simple types are returned as their
// canonical string, lists as {"list": elem}, structs as {"struct": {name: type}}
// and maps as {"map_": {"key": k, "value": v}}.
func UnpackType(s string) (interface{}, error) {
	dt, err := ParseType(s)
	if err != nil {
		return nil, err
	}
	return dt.unpack(), nil
}

func (t *DataType) unpack() interface{} {
	switch t.Name {
	case "list", "large_list":
		return map[string]interface{}{t.Name: t.Elem.unpack()}
	case "struct":
		fields := make(map[string]interface{}, len(t.Fields))
		for _, f := range t.Fields {
			fields[f.Name] = f.Type.unpack()
		}
		return map[string]interface{}{"struct": fields}
	case "map_":
		return map[string]interface{}{"map_": map[string]interface{}{
			"key":   t.Key.unpack(),
			"value": t.Value.unpack(),
		}}
	}
	return t.String()
}

type typeParser struct {
	src    string
	pos    int
	tok    string
	tokPos int
}

// next advances to the next token: an identifier, or one of <>(),:
func (p *typeParser) next() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	p.tokPos = p.pos
	if p.pos >= len(p.src) {
		p.tok = ""
		return
	}
	if strings.IndexByte("<>(),:", p.src[p.pos]) >= 0 {
		p.tok = p.src[p.pos : p.pos+1]
		p.pos++
		return
	}
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	if p.pos == start {
		// Unrecognized character, surface it as its own token
		p.pos++
	}
	p.tok = p.src[start:p.pos]
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '-' || c == '.' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func (p *typeParser) expect(tok string) error {
	if p.tok != tok {
		if p.tok == "" {
			return fmt.Errorf("expected %q but reached end of type", tok)
		}
		return fmt.Errorf("expected %q but found %q at offset %d", tok, p.tok, p.tokPos)
	}
	p.next()
	return nil
}

func (p *typeParser) ident() (string, error) {
	if p.tok == "" || !isIdentByte(p.tok[0]) {
		return "", fmt.Errorf("expected a name at offset %d", p.tokPos)
	}
	id := p.tok
	p.next()
	return id, nil
}

func (p *typeParser) integer() (int, error) {
	id, err := p.ident()
	if err != nil {
		return 0, err
	}
	i, err := strconv.Atoi(id)
	if err != nil {
		return 0, fmt.Errorf("expected an integer, found %q", id)
	}
	return i, nil
}

func (p *typeParser) parseType() (*DataType, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	dt := &DataType{Name: name}

	if _, ok := simpleTypes[name]; ok {
		return dt, nil
	}

	switch name {
	case "decimal128":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		if dt.Precision, err = p.integer(); err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		if dt.Scale, err = p.integer(); err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		if dt.Precision < 1 || dt.Precision > 38 {
			return nil, fmt.Errorf("decimal precision %d out of range 1-38", dt.Precision)
		}
		if dt.Scale < 0 || dt.Scale > dt.Precision {
			return nil, fmt.Errorf("decimal scale %d out of range 0-%d", dt.Scale, dt.Precision)
		}
	case "time32", "time64", "timestamp":
		if err := p.expect("("); err != nil {
			return nil, err
		}
		if dt.Unit, err = p.ident(); err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		if !contains(timeUnits[name], dt.Unit) {
			return nil, fmt.Errorf("unit %q is not valid for %s, expected one of %v", dt.Unit, name, timeUnits[name])
		}
	case "binary":
		if p.tok == "(" {
			p.next()
			if dt.Width, err = p.integer(); err != nil {
				return nil, err
			}
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			if dt.Width < 1 {
				return nil, fmt.Errorf("binary width must be positive")
			}
		}
	case "list", "large_list":
		if err := p.expect("<"); err != nil {
			return nil, err
		}
		if dt.Elem, err = p.parseType(); err != nil {
			return nil, err
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
	case "struct":
		if err := p.expect("<"); err != nil {
			return nil, err
		}
		seen := map[string]bool{}
		for {
			fname, err := p.ident()
			if err != nil {
				return nil, err
			}
			if seen[fname] {
				return nil, fmt.Errorf("duplicate struct field %q", fname)
			}
			seen[fname] = true
			if err := p.expect(":"); err != nil {
				return nil, err
			}
			ftype, err := p.parseType()
			if err != nil {
				return nil, err
			}
			dt.Fields = append(dt.Fields, Field{Name: fname, Type: ftype})
			if p.tok != "," {
				break
			}
			p.next()
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
	case "map_":
		if err := p.expect("<"); err != nil {
			return nil, err
		}
		if dt.Key, err = p.parseType(); err != nil {
			return nil, err
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
		if dt.Value, err = p.parseType(); err != nil {
			return nil, err
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown type name %q", name)
	}

	return dt, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
