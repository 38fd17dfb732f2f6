// Package redis creates go-redis clients from environment configuration and
// provides a health check probe.
//
// Connect validates the redis:// or rediss:// URL, then pings the server
// with exponential backoff until it answers or ConnectTimeout passes:
//
//	client, err := redis.Connect(ctx, redis.Config{
//		ConnectionURL: "redis://localhost:6379/0",
//		RetryAttempts: 3,
//		RetryInterval: time.Second,
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	store := csrf.NewRedisStore(client, "")
//
// Errors wrap ErrEmptyConnectionURL, ErrFailedToParseRedisConnString,
// ErrRedisNotReady or ErrHealthcheckFailed; check them with errors.Is.
package redis
