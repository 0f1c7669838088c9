package allocationerrors

import (
	"net/http"

	"leavedesk/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrInvalidPeriod = apperror.New(
		apperror.CodeInvalidInput,
		"invalid allocation period",
		http.StatusBadRequest,
	)
	ErrNegativeDays = apperror.New(
		apperror.CodeInvalidInput,
		"day count must not be negative",
		http.StatusBadRequest,
	)
	ErrAllocationNotFound = apperror.New(
		apperror.CodeNotFound,
		"no allocation exists for this employee, leave type and period",
		http.StatusNotFound,
	)
	ErrInsufficientBalance = apperror.New(
		apperror.CodeInsufficientBalance,
		"you do not have sufficient days for this request",
		http.StatusUnprocessableEntity,
	)
	ErrAllocationExists = apperror.New(
		apperror.CodeConflict,
		"allocation already exists for this employee, leave type and period",
		http.StatusConflict,
	)
)
