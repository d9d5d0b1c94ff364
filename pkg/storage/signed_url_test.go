package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("20260310-120000", "extra-classes-20260310-120000.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	exportID, filename, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "20260310-120000", exportID)
	require.Equal(t, "extra-classes-20260310-120000.csv", filename)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerRejectsDottedExportID(t *testing.T) {
	// Dots separate the token fields, so they cannot appear in the id.
	signer := NewSignedURLSigner("secret", time.Hour)
	_, _, err := signer.Generate("file.csv", "extra-classes.csv")
	require.Error(t, err)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Millisecond*10)
	token, _, err := signer.Generate("20260310-120000", "extra-classes-20260310-120000.csv")
	require.NoError(t, err)
	time.Sleep(time.Millisecond * 20)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	exportID, filename, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "20260310-120000", exportID)
	require.Equal(t, "extra-classes-20260310-120000.csv", filename)
}
