package models

import (
	"errors"
	"fmt"

	dErrors "custody/pkg/domain-errors"
)

// Ledger failure kinds. Services return them wrapped in a coded domain error,
// so callers can match with errors.Is or classify with dErrors.HasCode.
var (
	ErrUnauthorized         = errors.New("only admin can call this")
	ErrInvalidAddress       = errors.New("invalid address")
	ErrAlreadyAdmin         = errors.New("address is already admin")
	ErrNotAdmin             = errors.New("address is not an admin")
	ErrZeroThreshold        = errors.New("waited ts cannot be zero")
	ErrZeroDuration         = errors.New("duration cannot be zero")
	ErrDurationTooLong      = errors.New("duration is too long")
	ErrBasisPointTooLarge   = errors.New("basis point has to be less than 10000")
	ErrWaitNotElapsed       = errors.New("wait timestamp not yet passed")
	ErrVestingParamsNotSet  = errors.New("cliff and/or duration not set")
	ErrVestingHandoffFailed = errors.New("vesting handoff failed")

	ErrInvalidAmount  = errors.New("amount cannot be negative")
	ErrCliffTooLong   = errors.New("cliff is too long")
	ErrTransferFailed = errors.New("token transfer failed")
	ErrNoAdmins       = errors.New("at least one admin is required")
)

const (
	MsgInvalidToken           = "invalid token address"
	MsgInvalidVestingRegistry = "vesting registry address is invalid"
)

var errorCodes = map[error]dErrors.Code{
	ErrUnauthorized:         dErrors.CodeForbidden,
	ErrInvalidAddress:       dErrors.CodeInvalidInput,
	ErrAlreadyAdmin:         dErrors.CodeConflict,
	ErrNotAdmin:             dErrors.CodeNotFound,
	ErrZeroThreshold:        dErrors.CodeValidation,
	ErrZeroDuration:         dErrors.CodeValidation,
	ErrDurationTooLong:      dErrors.CodeValidation,
	ErrBasisPointTooLarge:   dErrors.CodeValidation,
	ErrWaitNotElapsed:       dErrors.CodePreconditionFailed,
	ErrVestingParamsNotSet:  dErrors.CodePreconditionFailed,
	ErrVestingHandoffFailed: dErrors.CodeDependencyFailed,
	ErrInvalidAmount:        dErrors.CodeValidation,
	ErrCliffTooLong:         dErrors.CodeValidation,
	ErrTransferFailed:       dErrors.CodeDependencyFailed,
	ErrNoAdmins:             dErrors.CodeValidation,
}

// Fail wraps a failure kind in its coded domain error.
func Fail(kind error) error {
	return dErrors.Wrap(kind, codeFor(kind), kind.Error())
}

// FailMsg wraps a failure kind with a more specific message.
func FailMsg(kind error, message string) error {
	return dErrors.Wrap(kind, codeFor(kind), message)
}

// FailWith wraps a failure kind together with the collaborator error that
// caused it. Both stay reachable through errors.Is.
func FailWith(kind, cause error) error {
	return dErrors.Wrap(fmt.Errorf("%w: %w", kind, cause), codeFor(kind), kind.Error())
}

func codeFor(kind error) dErrors.Code {
	if code, ok := errorCodes[kind]; ok {
		return code
	}
	return dErrors.CodeInternal
}
