package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"optovik-store/models"
)

type errScanner struct{ err error }

func (s errScanner) Scan(...interface{}) error { return s.err }

func TestScanMapsNoRows(t *testing.T) {
	_, err := scanProduct(errScanner{sql.ErrNoRows})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = scanOrder(errScanner{sql.ErrNoRows})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = scanProduct(errScanner{errors.New("conn closed")})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestIsUniqueViolation(t *testing.T) {
	wrapped := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})
	assert.True(t, isUniqueViolation(wrapped))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("23505")))
}

func TestEncodeVariants(t *testing.T) {
	p := &models.Product{Sizes: []string{"M", "XXL"}}
	colors, sizes, err := encodeVariants(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(colors))
	assert.JSONEq(t, `["M","XXL"]`, string(sizes))
	assert.NotNil(t, p.Colors)
}

func TestNullStringAndFormatTime(t *testing.T) {
	assert.False(t, nullString("").Valid)
	assert.True(t, nullString("pi_1").Valid)

	msk := time.FixedZone("MSK", 3*3600)
	assert.Equal(t, "2026-03-10T06:00:00Z", formatTime(time.Date(2026, 3, 10, 9, 0, 0, 0, msk)))
}
