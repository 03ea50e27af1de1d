package storage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	key := ObjectKey("../../My Truck!.JPG")
	assert.True(t, strings.HasPrefix(key, "vehicles/"))
	assert.True(t, strings.HasSuffix(key, "-my-truck-.jpg"), key)
	assert.NotContains(t, key, "..")

	assert.NotEqual(t, ObjectKey("a.png"), ObjectKey("a.png"))
	assert.True(t, strings.HasSuffix(ObjectKey("///"), "-image"))
}

func TestURL(t *testing.T) {
	s := &ImageStore{publicURL: "https://cdn.example"}
	assert.Equal(t, "https://cdn.example/vehicles/x.png", s.URL("vehicles/x.png"))
}
