package autherrors

import (
	"net/http"

	"github.com/julikubo/timesupa/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		apperror.CodeUnauthorized,
		"Email or password is incorrect",
		http.StatusUnauthorized,
	)

	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"Token is invalid",
		http.StatusUnauthorized,
	)

	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"Token has expired",
		http.StatusUnauthorized,
	)

	ErrInvalidRefreshToken = apperror.New(
		"INVALID_TOKEN",
		"Refresh token is invalid or expired",
		http.StatusUnauthorized,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeUnauthorized,
		"A valid user session is required",
		http.StatusUnauthorized,
	)

	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"User not found",
		http.StatusNotFound,
	)

	ErrEmailTaken = apperror.New(
		apperror.CodeConflict,
		"Email is already registered",
		http.StatusConflict,
	)

	ErrFaceNotRecognized = apperror.New(
		apperror.CodeUnauthorized,
		"Face was not recognized for any enabled account",
		http.StatusUnauthorized,
	)

	ErrFaceLoginDisabled = apperror.New(
		apperror.CodeForbidden,
		"Face login is not enabled for this account",
		http.StatusForbidden,
	)
)
