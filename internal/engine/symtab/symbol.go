package symtab

import (
	"symscope/internal/core/errors"
)

// Symbol is the record of one identifier within one scope. Name and Line are
// fixed by Install; the remaining metadata belongs to the caller.
type Symbol struct {
	name string
	line int

	Kind     Kind
	ElemType Type
	Size     int
	Addr     int
	Length   int

	params    []Type
	maxParams int
	value     Value
}

func newSymbol(name string, line, maxParams int) *Symbol {
	return &Symbol{
		name:      name,
		line:      line,
		Length:    1,
		maxParams: maxParams,
	}
}

func (s *Symbol) Name() string { return s.name }

// Line is the source line of the first declaration.
func (s *Symbol) Line() int { return s.line }

// AddParam appends a parameter type, failing once the list is full.
func (s *Symbol) AddParam(t Type) error {
	if len(s.params) >= s.maxParams {
		return errors.Wrapf(ErrTooManyParams, errors.CodeLimitExceeded, "parameter list holds at most %d entries", s.maxParams).
			WithContext(errors.CtxSymbol, s.name)
	}
	s.params = append(s.params, t)
	return nil
}

// SetParams replaces the parameter list. On error the list is left unchanged.
func (s *Symbol) SetParams(types ...Type) error {
	if len(types) > s.maxParams {
		return errors.Wrapf(ErrTooManyParams, errors.CodeLimitExceeded, "%d parameters exceed the limit of %d", len(types), s.maxParams).
			WithContext(errors.CtxSymbol, s.name)
	}
	s.params = append(s.params[:0:0], types...)
	return nil
}

// Params returns a copy of the parameter types.
func (s *Symbol) Params() []Type {
	if len(s.params) == 0 {
		return nil
	}
	out := make([]Type, len(s.params))
	copy(out, s.params)
	return out
}

func (s *Symbol) ParamCount() int { return len(s.params) }

func (s *Symbol) Value() Value { return s.value }

// SetValue stores v after checking it against ElemType. A nil v clears the value.
func (s *Symbol) SetValue(v Value) error {
	if v == nil {
		s.value = nil
		return nil
	}
	if !accepts(s.ElemType, v) {
		return errors.Wrapf(ErrValueType, errors.CodeTypeMismatch, "cannot store %T in %s record", v, s.ElemType).
			WithContext(errors.CtxSymbol, s.name)
	}
	s.value = v
	return nil
}
