package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetNX(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	ok, err := c.SetNX(ctx, "wamid.1", "1", 50*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.SetNX(ctx, "wamid.1", "1", 50*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = c.SetNX(ctx, "wamid.2", "1", 0)
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Eventually(t, func() bool {
		ok, err := c.SetNX(ctx, "wamid.1", "1", time.Hour)
		return err == nil && ok
	}, time.Second, 10*time.Millisecond)

	ok, err = c.SetNX(ctx, "wamid.2", "1", 0)
	require.NoError(t, err)
	assert.False(t, ok)
}
