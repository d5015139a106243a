// Package cache provides a generic LRU cache with an eviction hook.
//
// The hook lets a cache own values that hold device resources: an evicted
// texture is destroyed when it falls out of the cache.
//
//	c := cache.New[string, *batch.Image](64, func(_ string, img *batch.Image) {
//		img.Destroy()
//	})
//	img, err := c.GetOrCreate("sprite.png", load)
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
