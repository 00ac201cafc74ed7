package build

import "errors"

var (
	ErrInvalidConfig          = errors.New("invalid picked posts config")
	ErrListNotFile            = errors.New("picked posts list is not a file")
	ErrInvalidPickList        = errors.New("invalid picked posts list")
	ErrMalformedFrontMatter   = errors.New("malformed front matter")
	ErrUnrecognizedPathLayout = errors.New("unrecognized path layout")
)
