package timecarderrors

import (
	"net/http"

	"github.com/julikubo/timesupa/internal/shared/apperror"
)

var (
	ErrAlreadyWorking = apperror.New(
		apperror.CodeInvalidState,
		"You already clocked in today and have not clocked out yet",
		http.StatusConflict,
	)

	ErrNoOpenRecord = apperror.New(
		apperror.CodeInvalidState,
		"There is no clock-in record for today",
		http.StatusConflict,
	)

	ErrAlreadyClosed = apperror.New(
		apperror.CodeInvalidState,
		"You already clocked out of this record",
		http.StatusConflict,
	)

	ErrInvalidDate = apperror.New(
		apperror.CodeInvalidInput,
		"Date must be formatted as YYYY-MM-DD",
		http.StatusBadRequest,
	)

	ErrRecordNotFound = apperror.New(
		apperror.CodeNotFound,
		"Time record not found",
		http.StatusNotFound,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeUnauthorized,
		"A valid user session is required",
		http.StatusUnauthorized,
	)
)
