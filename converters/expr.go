package converters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Expr is a parsed type expression in the hive-like syntax shared by several
// catalogs, e.g. decimal(10,2), array<int> or struct<a:int,b:map<string,int>>.
type Expr struct {
	Name   string  // Lower cased type name
	Args   []int   // Parenthesized integer arguments
	Params []Param // Type parameters within angle brackets
}

// Param is a type parameter.  Name is set for struct fields.
type Param struct {
	Name string
	Type *Expr
}

// ParseExpr parses a type expression
func ParseExpr(s string) (*Expr, error) {
	p := &exprParser{src: s}
	p.next()
	e, err := p.parse()
	if err != nil {
		return nil, errors.Wrapf(err, "invalid type %q", s)
	}
	if p.tok != "" {
		return nil, errors.Errorf("invalid type %q: unexpected %q", s, p.tok)
	}
	return e, nil
}

type exprParser struct {
	src string
	pos int
	tok string
}

const exprPunct = "<>(),:"

func (p *exprParser) next() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
	if p.pos >= len(p.src) {
		p.tok = ""
		return
	}
	if strings.IndexByte(exprPunct, p.src[p.pos]) >= 0 {
		p.tok = p.src[p.pos : p.pos+1]
		p.pos++
		return
	}
	start := p.pos
	for p.pos < len(p.src) && strings.IndexByte(exprPunct+" ", p.src[p.pos]) < 0 {
		p.pos++
	}
	p.tok = p.src[start:p.pos]
}

func (p *exprParser) expect(tok string) error {
	if p.tok != tok {
		if p.tok == "" {
			return fmt.Errorf("expected %q but reached the end", tok)
		}
		return fmt.Errorf("expected %q, found %q", tok, p.tok)
	}
	p.next()
	return nil
}

func (p *exprParser) name() (string, error) {
	if p.tok == "" || strings.IndexByte(exprPunct, p.tok[0]) >= 0 {
		return "", fmt.Errorf("expected a name, found %q", p.tok)
	}
	n := p.tok
	p.next()
	return n, nil
}

func (p *exprParser) parse() (*Expr, error) {
	n, err := p.name()
	if err != nil {
		return nil, err
	}
	return p.parseNamed(n)
}

func (p *exprParser) parseNamed(n string) (*Expr, error) {
	e := &Expr{Name: strings.ToLower(n)}

	if p.tok == "(" {
		p.next()
		for {
			a, err := p.name()
			if err != nil {
				return nil, err
			}
			i, err := strconv.Atoi(a)
			if err != nil {
				return nil, fmt.Errorf("expected an integer, found %q", a)
			}
			e.Args = append(e.Args, i)
			if p.tok != "," {
				break
			}
			p.next()
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
	}

	if p.tok == "<" {
		p.next()
		for {
			param, err := p.param()
			if err != nil {
				return nil, err
			}
			e.Params = append(e.Params, param)
			if p.tok != "," {
				break
			}
			p.next()
		}
		if err := p.expect(">"); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// param reads a type, or a name:type struct field
func (p *exprParser) param() (Param, error) {
	n, err := p.name()
	if err != nil {
		return Param{}, err
	}
	if p.tok != ":" {
		t, err := p.parseNamed(n)
		return Param{Type: t}, err
	}
	p.next()
	t, err := p.parse()
	return Param{Name: n, Type: t}, err
}

func (e *Expr) fieldsNamed() bool {
	for _, p := range e.Params {
		if p.Name == "" {
			return false
		}
	}
	return true
}

// Check verifies the expression has the expected number of type parameters, and
// that they are named struct fields, or not, as required.
func (e *Expr) Check(params int, named bool) error {
	if params >= 0 && len(e.Params) != params {
		return errors.Errorf("%s takes %d type parameters, found %d", e.Name, params, len(e.Params))
	}
	if named && (len(e.Params) == 0 || !e.fieldsNamed()) {
		return errors.Errorf("%s needs named fields", e.Name)
	}
	if !named {
		for _, p := range e.Params {
			if p.Name != "" {
				return errors.Errorf("%s does not take named fields", e.Name)
			}
		}
	}
	return nil
}
