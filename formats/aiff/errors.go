package aiff

import "errors"

var (
	ErrNotAiffFile = errors.New("not an AIFF file")
)
