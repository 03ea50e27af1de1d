package cache

import (
	"context"
	"testing"
	"time"

	"github.com/dgeemedia/cse340-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectedCacheDegrades(t *testing.T) {
	ctx := context.Background()
	var c *Cache

	assert.False(t, c.IsHealthy(ctx))
	assert.Nil(t, c.Client())
	assert.NoError(t, c.Close())

	c.SetClassifications(ctx, []models.Classification{{ID: 1, Name: "SUV"}})
	_, ok := c.GetClassifications(ctx)
	assert.False(t, ok)
	c.InvalidateClassifications(ctx)

	n, err := c.Failures(ctx, "totp:1")
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, c.RecordFailure(ctx, "totp:1", time.Minute))
	assert.NoError(t, c.Reset(ctx, "totp:1"))

	empty := &Cache{}
	assert.False(t, empty.IsHealthy(ctx))
}

func TestAttemptsKey(t *testing.T) {
	assert.Equal(t, "attempts:totp:7", AttemptsKey("totp:7"))
}
