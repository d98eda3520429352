package middleware

var NewRateLimiterWithIdle = newRateLimiter
