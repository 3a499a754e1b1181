package webview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenURLWithSession(t *testing.T) {
	s := NewSessions()
	id := s.NewSession()
	require.NotEmpty(t, id)

	require.NoError(t, s.OpenURL(WithSession(context.Background(), id), "http://example.com/page?a=1"))

	url, ok := s.Take(id)
	assert.True(t, ok)
	assert.Equal(t, "http://example.com/page?a=1", url)

	_, ok = s.Take(id)
	assert.False(t, ok, "url is consumed by Take")
}

func TestOpenURLWithoutSession(t *testing.T) {
	s := NewSessions()
	require.NoError(t, s.OpenURL(context.Background(), "http://example.com"))
	assert.ErrorIs(t, s.OpenURL(context.Background(), ""), ErrEmptyURL)
}
