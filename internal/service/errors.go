package service

import "errors"

// Outcome sentinels shared across services. Authorization failures always
// collapse into ErrUnauthorized so callers cannot distinguish bad credentials
// from insufficient privilege.
var (
	ErrUnauthorized     = errors.New("not authorized")
	ErrTagNotFound      = errors.New("tag does not exist")
	ErrNotFound         = errors.New("record not found")
	ErrBadRequest       = errors.New("bad request")
	ErrAlreadyCheckedIn = errors.New("already checked in")
)
