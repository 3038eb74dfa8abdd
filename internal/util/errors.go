package util

import "errors"

// Upload validation errors. Their text is shown to users as is.
var (
	ErrNoFile        = errors.New("No file provided")
	ErrEmptyFilename = errors.New("No file selected")
	ErrNotPDF        = errors.New("Invalid file format")
	ErrInvalidName   = errors.New("invalid file name")
)

var (
	ErrQuotaExhausted = errors.New("provider quota exhausted")
	ErrRateLimited    = errors.New("provider rate limited")
	ErrTransient      = errors.New("transient provider error")
	ErrPermanent      = errors.New("permanent provider error")
)
