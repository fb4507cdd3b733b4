package sharing

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHMACSigner(t *testing.T) {
	s, err := NewHMACSigner("k1")
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	signed, err := s.SignURL(context.Background(), "s3://bucket/t/part-0.parquet?versionId=3", now.Add(time.Minute))
	require.NoError(t, err)
	u, err := url.Parse(signed)
	require.NoError(t, err)
	assert.Equal(t, "/t/part-0.parquet", u.Path)
	assert.Equal(t, "3", u.Query().Get("versionId"))
	assert.NotEmpty(t, u.Query().Get(SignatureParam))

	assert.NoError(t, s.Verify(signed, now))
	assert.ErrorIs(t, s.Verify(signed, now.Add(2*time.Minute)), ErrExpiredSignature)

	other, err := NewHMACSigner("k2")
	require.NoError(t, err)
	assert.ErrorIs(t, other.Verify(signed, now), ErrInvalidSignature)

	q := u.Query()
	q.Set(ExpiresParam, "9999999999")
	u.RawQuery = q.Encode()
	assert.ErrorIs(t, s.Verify(u.String(), now), ErrInvalidSignature)
	assert.ErrorIs(t, s.Verify("s3://bucket/t/part-0.parquet", now), ErrInvalidSignature)
}

func TestRandomKey(t *testing.T) {
	a, err := NewHMACSigner("")
	require.NoError(t, err)
	b, err := NewHMACSigner("")
	require.NoError(t, err)
	exp := time.Now().Add(time.Hour)
	signed, err := a.SignURL(context.Background(), "file:///tmp/x", exp)
	require.NoError(t, err)
	assert.NoError(t, a.Verify(signed, time.Now()))
	assert.Error(t, b.Verify(signed, time.Now()))
}

func TestParseCapabilities(t *testing.T) {
	c, err := ParseCapabilities("")
	require.NoError(t, err)
	assert.Equal(t, []string{ResponseFormatParquet}, c.ResponseFormats)

	c, err = ParseCapabilities("responseformat=delta,Parquet; readerfeatures=deletionvectors,columnmapping")
	require.NoError(t, err)
	assert.Equal(t, []string{"delta", "parquet"}, c.ResponseFormats)
	assert.Equal(t, []string{"deletionvectors", "columnmapping"}, c.ReaderFeatures)

	_, err = ParseCapabilities("responseformat=delta")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
