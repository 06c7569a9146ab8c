package settingserrors

import (
	"net/http"

	"github.com/julikubo/timesupa/internal/shared/apperror"
)

var (
	ErrStoreRejected = apperror.New(
		apperror.CodeStoreError,
		"The settings store rejected both the full and the minimal write",
		http.StatusBadGateway,
	)

	ErrInvalidUserID = apperror.New(
		apperror.CodeUnauthorized,
		"A valid user session is required",
		http.StatusUnauthorized,
	)
)
