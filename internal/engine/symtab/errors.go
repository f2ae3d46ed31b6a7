package symtab

import (
	stderrors "errors"

	"symscope/internal/core/errors"
)

var (
	ErrStackOverflow     = stderrors.New("scope nesting too deep")
	ErrStackUnderflow    = stderrors.New("no scope to close")
	ErrInvalidIdentifier = stderrors.New("invalid identifier")
	ErrTooManyParams     = stderrors.New("too many parameters")
	ErrValueType         = stderrors.New("value does not match element type")
	ErrScopeClosed       = stderrors.New("scope already destroyed")
)

func invalidIdentifier(name, reason string) error {
	return errors.Wrapf(ErrInvalidIdentifier, errors.CodeInvalidIdentifier, "%s", reason).
		WithContext(errors.CtxSymbol, name)
}
