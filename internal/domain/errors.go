package domain

import "errors"

var (
	ErrUnauthenticated  = errors.New("user must be authenticated")
	ErrNotFound         = errors.New("document not found")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidMessage   = errors.New("message must have a sender and exactly one of text or imageUrl")
	ErrPermissionDenied = errors.New("notification permission denied")
)
