package server

import "errors"

var (
	ErrMissingAddress       = errors.New("server address is required")
	ErrServerAlreadyRunning = errors.New("server is already running")
	ErrListen               = errors.New("server failed to listen")
	ErrFailedLoadCert       = errors.New("failed to load certificate")
)
