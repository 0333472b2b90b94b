package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCache(t *testing.T) {
	c := New[string](time.Minute, time.Minute)

	_, ok := c.Get("http://x/license.json")
	assert.False(t, ok)

	c.Set("http://x/license.json", "cc-by")
	v, ok := c.Get("http://x/license.json")
	assert.True(t, ok)
	assert.Equal(t, "cc-by", v)
	assert.Equal(t, 1, c.ItemCount())

	c.Delete("http://x/license.json")
	_, ok = c.Get("http://x/license.json")
	assert.False(t, ok)

	c.Set("a", "1")
	c.Set("b", "2")
	c.Clear()
	assert.Equal(t, 0, c.ItemCount())
}

func TestCacheTTL(t *testing.T) {
	c := New[int](time.Minute, time.Minute)
	c.SetWithTTL("short", 1, 10*time.Millisecond)
	c.Set("long", 2)

	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("short")
	assert.False(t, ok)
	v, ok := c.Get("long")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}
