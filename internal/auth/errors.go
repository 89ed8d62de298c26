package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("auth: invalid username or password")
	ErrInvalidToken       = errors.New("auth: invalid token")
	ErrTokenExpired       = errors.New("auth: refresh token expired")
	ErrTokenRevoked       = errors.New("auth: refresh token revoked")
	ErrTokenNotFound      = errors.New("auth: refresh token not found")
)
