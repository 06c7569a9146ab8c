package consumer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueSettingsViolation(t *testing.T) {
	assert.True(t, isUniqueSettingsViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, isUniqueSettingsViolation(fmt.Errorf("create: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueSettingsViolation(&pgconn.PgError{Code: "42703"}))
	assert.False(t, isUniqueSettingsViolation(errors.New("plain failure")))
	assert.False(t, isUniqueSettingsViolation(nil))
}
