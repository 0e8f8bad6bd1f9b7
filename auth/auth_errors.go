package auth

import "errors"

var (
	LoginInFlightErr    = errors.New("login already in progress")
	LoginFailedErr      = errors.New("Falha no login")
	SignupFailedErr     = errors.New("Falha no cadastro")
	ControllerClosedErr = errors.New("controller disposed")
)
