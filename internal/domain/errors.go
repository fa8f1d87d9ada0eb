package domain

import "errors"

var (
	// ErrQuizNotFound indicates the referenced quiz does not exist.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestNotFound indicates the referenced quest does not exist.
	ErrQuestNotFound = errors.New("quest not found")
	// ErrUserNotFound indicates the user has no profile row yet.
	ErrUserNotFound = errors.New("user not found")
	// ErrUnauthorized is returned when a non-admin enters an admin surface.
	ErrUnauthorized = errors.New("not authorized")
	// ErrInvalidCounter rejects counter fields outside the whitelist.
	ErrInvalidCounter = errors.New("invalid counter field")
)
