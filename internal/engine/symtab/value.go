package symtab

import "strconv"

// Value is the constant value carried by a record. The concrete types are
// IntValue, RealValue and StringValue.
type Value interface {
	isValue()
	String() string
}

type IntValue int64

type RealValue float64

type StringValue string

func (IntValue) isValue()    {}
func (RealValue) isValue()   {}
func (StringValue) isValue() {}

func (v IntValue) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v RealValue) String() string   { return strconv.FormatFloat(float64(v), 'g', -1, 64) }
func (v StringValue) String() string { return strconv.Quote(string(v)) }

// accepts reports whether a value of v's variant may be stored in a record of
// element type t.
func accepts(t Type, v Value) bool {
	switch v.(type) {
	case IntValue:
		return t == TypeInt || t == TypeChar || t == TypeBool
	case RealValue:
		return t == TypeReal
	case StringValue:
		return t == TypeString
	}
	return false
}
