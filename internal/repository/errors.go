// Package repository implements MySQL persistence for users,
// refresh tokens and student profiles.  Sentinel errors defined here
// let handlers map failure scenarios onto precise HTTP responses
// without inspecting driver error strings.
package repository

import "errors"

// ErrEmailExists is returned when registering an email that is
// already taken.  Handlers translate it into HTTP 409.
var ErrEmailExists = errors.New("email already exists")

// ErrProfileNotFound is returned when a student profile row does not
// exist for the requested user.  Handlers translate it into HTTP 404.
var ErrProfileNotFound = errors.New("student profile not found")
