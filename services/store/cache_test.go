package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sahilchouksey/video-agent-api/model"
	"github.com/stretchr/testify/assert"
)

func TestMemoryCacheClonesOnPutAndGet(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	s := model.NewSession("s1", "u1", time.Now())
	c.Put(ctx, s)
	s.Brand.Name = "changed after put"

	got, ok := c.Get(ctx, "s1")
	assert.True(t, ok)
	assert.Empty(t, got.Brand.Name)

	got.Brand.Name = "changed after get"
	again, _ := c.Get(ctx, "s1")
	assert.Empty(t, again.Brand.Name)
}

func TestMemoryCacheConcurrentAccess(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Put(ctx, model.NewSession("shared", "u1", time.Now()))
				c.Get(ctx, "shared")
				c.Evict(ctx, "shared")
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 1)
}
