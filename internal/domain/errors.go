package domain

import "errors"

var (
	ErrHostnameTaken      = errors.New("hostname already exists")
	ErrHostnameNotFound   = errors.New("hostname not found")
	ErrInvalidHostname    = errors.New("invalid hostname configuration")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("unauthorized")
)
