package catalog

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrDuplicateFile       = errors.New("file already exists")
	ErrDuplicateProblem    = errors.New("problem id already in use")
	ErrInvalidInput        = errors.New("invalid input")
	ErrWrite               = errors.New("write failed")
)
