// Package cache provides a small generic cache with in-memory and Redis backends.
//
// Both backends implement [Cache]. [Memory] keeps entries in process with TTL
// expiry and LRU eviction; [Redis] stores JSON-encoded values under a key prefix.
//
//	var c cache.Cache[PublicProgram]
//	if client != nil {
//		c = cache.NewRedis[PublicProgram](client, "atelier:programs", 5*time.Minute)
//	} else {
//		c = cache.NewMemory[PublicProgram](5*time.Minute, 1000, time.Minute)
//	}
//
// [Loader] deduplicates concurrent misses with singleflight, so an expensive
// lookup runs once per key no matter how many requests miss at the same time:
//
//	programs := cache.NewLoader(c, 5*time.Minute)
//	view, err := programs.Get(ctx, hash, func(ctx context.Context) (PublicProgram, error) {
//		return repo.PublicProgram(ctx, hash)
//	})
//
// Each Loader owns its singleflight group; there is no package-level state.
package cache
