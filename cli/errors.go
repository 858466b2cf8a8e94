package cli

import "errors"

// Sentinel errors for command operations
var (
	ErrQueryMissing            = errors.New("no query given, pass query text or --file")
	ErrQueryTextAndFile        = errors.New("query text and --file are mutually exclusive")
	ErrInvalidParams           = errors.New("invalid parameters")
	ErrParametersFileNotFound  = errors.New("parameters file not found")
	ErrUnsupportedParamsFormat = errors.New("unsupported parameters file format")
	ErrInvalidOutputFormat     = errors.New("invalid output format")
	ErrOutputFileCreation      = errors.New("failed to create output file")
)
