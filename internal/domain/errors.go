package domain

import "errors"

var (
	// ErrFetchFailed means a URL could not be fetched within the retry budget.
	ErrFetchFailed = errors.New("fetch failed")

	// ErrExtraction marks a card or payload node that could not be converted.
	ErrExtraction = errors.New("extraction failed")

	// ErrValidation marks a record missing a required field.
	ErrValidation = errors.New("invalid record")

	// ErrBaselineUnavailable means the previous canonical set could not be loaded.
	ErrBaselineUnavailable = errors.New("merge baseline unavailable")
)
