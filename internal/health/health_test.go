package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	ok   Check = func(context.Context) error { return nil }
	down Check = func(context.Context) error { return errors.New("down") }
)

func TestCheckBasic(t *testing.T) {
	ctx := context.Background()

	h := NewHealthChecker(ok)
	assert.Equal(t, StatusHealthy, h.CheckBasic(ctx).Status)

	h.AddOptional("redis", down)
	status := h.CheckBasic(ctx)
	assert.Equal(t, StatusDegraded, status.Status)
	assert.Equal(t, StatusUnhealthy, status.Dependencies["redis"].Status)

	assert.Equal(t, StatusUnhealthy, NewHealthChecker(down).CheckBasic(ctx).Status)
	assert.Equal(t, StatusUnhealthy, NewHealthChecker(nil).CheckBasic(ctx).Status)
}

func TestCheckDetailed(t *testing.T) {
	d := NewHealthChecker(ok).CheckDetailed(context.Background())
	assert.Equal(t, StatusHealthy, d.Status)
	assert.Positive(t, d.Goroutines)
	assert.NotEmpty(t, d.Uptime)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512.0 MB", formatBytes(512*1024*1024))
	assert.Equal(t, "2.0 GB", formatBytes(2*1024*1024*1024))
}
