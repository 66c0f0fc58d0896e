package upload

import "errors"

var (
	// ErrUnsupportedFormat is returned for files the server will not accept.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrEmptyFile is returned for zero-byte files.
	ErrEmptyFile = errors.New("file is empty")

	// ErrFileTooLarge is returned for files over MaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds maximum upload size")

	// ErrNotRegularFile is returned for directories and devices.
	ErrNotRegularFile = errors.New("path is not a regular file")
)
