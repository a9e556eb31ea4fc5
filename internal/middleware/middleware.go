// Package middleware stores global and route-specific middleware.
//
// These intercept requests to handle cross-cutting concerns
// such as request ids, request-scoped logging, CORS, panic
// recovery and the final error funnel. The rate limit and auth
// checks are route stages so they can sit in a compiled sequence
// in front of a handler.
package middleware
