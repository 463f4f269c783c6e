package middleware

import "errors"

var errRateLimited = errors.New("submission rate limit exceeded")
