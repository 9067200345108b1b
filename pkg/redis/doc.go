// Package redis opens go-redis clients from configuration.
//
//	client, err := redis.Open(ctx, redis.Config{URL: "redis://localhost:6379/0"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Open pings the server and retries with linear backoff before giving up.
// Healthcheck returns a probe for the readiness endpoint and Shutdown a hook
// for the server runtime.
package redis
