package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidFilter indicates the report filter could not be parsed.
	ErrInvalidFilter = errors.New("invalid filter")
	// ErrSourceUnavailable indicates the dataset source cannot be read.
	ErrSourceUnavailable = errors.New("dataset source unavailable")
	// ErrEmptyDataset indicates a load produced no rows.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// UserSafeMessage maps internal errors to messages that can be returned to
// API clients without leaking internals.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Resource not found."
	case errors.Is(err, ErrInvalidFilter):
		return "One or more filter values are invalid."
	case errors.Is(err, ErrSourceUnavailable):
		return "The dataset source is temporarily unavailable."
	case errors.Is(err, ErrEmptyDataset):
		return "No data has been loaded yet."
	default:
		return "An unexpected error occurred."
	}
}
