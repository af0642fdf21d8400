package attributes

import "errors"

var (
	ErrEmptyTaxonomy   = errors.New("taxonomy has no entries")
	ErrInvalidTaxonomy = errors.New("invalid taxonomy")
)
