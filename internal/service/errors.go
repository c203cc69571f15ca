package service

import "errors"

// ValidationError marks bad or missing input the caller can correct.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

var (
	// ErrNoSubscribers is returned when a subscriber-targeted dispatch
	// finds no addressable player ids. The gateway is never contacted.
	ErrNoSubscribers = errors.New("no users have subscribed to notifications")
	// ErrInvalidCredentials covers both unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid name or password")
)
