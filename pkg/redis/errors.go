package redis

import "errors"

// Errors returned while connecting to the redis server behind the redis
// credential driver.
var (
	ErrEmptyConnectionURL           = errors.New("redis: empty connection URL, set REDIS_URL")
	ErrFailedToParseRedisConnString = errors.New("redis: failed to parse connection URL")
	ErrRedisNotReady                = errors.New("redis: server not ready before the connect deadline")
	ErrHealthcheckFailed            = errors.New("redis: credential store unreachable")
)
