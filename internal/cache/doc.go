// Package cache provides a generic LRU cache with an eviction callback.
//
//	c := cache.New[string, *glstate.Texture](64)
//	c.OnEvict(func(name string, t *glstate.Texture) {
//	    _ = ctx.DeleteTexture(t)
//	})
//	c.Add("wall.png", tex)
//	tex, ok := c.Get("wall.png")
//
// # Thread Safety
//
// LRU is safe for concurrent use. The eviction callback runs after the
// cache lock is released, so it may call back into the cache.
package cache
