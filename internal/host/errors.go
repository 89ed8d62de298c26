package host

import "errors"

var (
	ErrNotFound       = errors.New("host: not found")
	ErrHostExists     = errors.New("host: handle already exists")
	ErrUsernameExists = errors.New("host: username already exists")
	ErrUnauthorized   = errors.New("host: unauthorized")
	ErrInvalidInput   = errors.New("host: invalid input")
)
