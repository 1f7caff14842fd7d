package parser

import "errors"

var (
	// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrNotHTML is returned when the response is not an HTML document.
	ErrNotHTML = errors.New("response is not HTML")

	// ErrSchemeChange is returned when a redirect leads to another scheme.
	ErrSchemeChange = errors.New("redirect changes URL scheme")

	// ErrFileNotAllowed is returned for a file:// URL outside the file roots.
	ErrFileNotAllowed = errors.New("local file is outside the allowed directories")
)
