package core

import "errors"

var (
	ErrUnknownAssetTier   = errors.New("unknown asset tier")
	ErrUnknownFacetRole   = errors.New("unknown facet role")
	ErrParamCountMismatch = errors.New("param types and params differ in length")
	ErrUnsupportedParam   = errors.New("unsupported param value")
	ErrAlreadyExecuted    = errors.New("timelock transaction already executed")
	ErrInvalidValue       = errors.New("invalid transaction value")
	ErrUnsupportedFormat  = errors.New("unsupported config format")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrInvalidTarget      = errors.New("invalid timelock target")
)
