package symtab

const (
	// DefaultMaxDepth bounds scope nesting.
	DefaultMaxDepth = 100
	// DefaultMaxParams bounds the parameter list of a function record.
	DefaultMaxParams = 12
	// DefaultMaxIdentLen of zero leaves identifier length unchecked.
	DefaultMaxIdentLen = 0
)

// Limits are fixed when a table or stack is created.
type Limits struct {
	MaxDepth    int
	MaxParams   int
	MaxIdentLen int
}

func DefaultLimits() Limits {
	return Limits{
		MaxDepth:    DefaultMaxDepth,
		MaxParams:   DefaultMaxParams,
		MaxIdentLen: DefaultMaxIdentLen,
	}
}

// normalized replaces non-positive bounds with the defaults.
func (l Limits) normalized() Limits {
	if l.MaxDepth <= 0 {
		l.MaxDepth = DefaultMaxDepth
	}
	if l.MaxParams <= 0 {
		l.MaxParams = DefaultMaxParams
	}
	if l.MaxIdentLen < 0 {
		l.MaxIdentLen = DefaultMaxIdentLen
	}
	return l
}
