package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("unit-test-secret", time.Hour)

	token, expiresAt, err := signer.Generate("job-1", "exports/transcript-job-1.csv")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	jobID, relPath, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
	require.Equal(t, "exports/transcript-job-1.csv", relPath)
	require.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("unit-test-secret", time.Hour)

	token, _, err := signer.Generate("job-1", "exports/roster.csv")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token+"ff", false)
	require.Error(t, err)

	_, _, _, err = signer.Parse("not-a-token", false)
	require.Error(t, err)
}

func TestSignedURLRejectsForeignSecret(t *testing.T) {
	signer := NewSignedURLSigner("secret-a", time.Hour)
	other := NewSignedURLSigner("secret-b", time.Hour)

	token, _, err := signer.Generate("job-1", "exports/gpa.pdf")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token, false)
	require.Error(t, err)
}

func TestSignedURLExpiry(t *testing.T) {
	signer := NewSignedURLSigner("unit-test-secret", time.Nanosecond)

	token, _, err := signer.Generate("job-1", "exports/roster.csv")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)

	_, _, _, err = signer.Parse(token, false)
	require.Error(t, err)

	jobID, _, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-1", jobID)
}
