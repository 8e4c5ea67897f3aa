package domain

import "errors"

// Credential errors.
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrAccountDisabled = errors.New("account disabled")
var ErrUserExists = errors.New("user already exists")
var ErrUserNotFound = errors.New("user not found")

var ErrProfileNotFound = errors.New("profile not found")
var ErrFieldNotWritable = errors.New("field is not writable")
var ErrInvalidProfileValue = errors.New("invalid profile value")
var ErrForbidden = errors.New("access forbidden")

var ErrResetNotConfirmed = errors.New("reset requires explicit confirmation")
var ErrDuplicateScan = errors.New("scan already redeemed")

// ErrUnavailable marks a request refused because the server is shutting down.
var ErrUnavailable = errors.New("service unavailable")

// ErrInvalidMilestoneTable is returned when the configured milestones are
// unusable. It is a startup error.
var ErrInvalidMilestoneTable = errors.New("invalid milestone table")
