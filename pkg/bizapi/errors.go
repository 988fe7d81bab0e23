package bizapi

import "errors"

var (
	ErrEmptyResponse   = errors.New("response did not contain the expected data")
	ErrMissingID       = errors.New("id is required")
	ErrReceiptNotImage = errors.New("receipt must be an image")
	ErrReceiptTooLarge = errors.New("receipt exceeds size limit")
	ErrReceiptRead     = errors.New("failed to read receipt")
)
