// Package lib acts as a library for modules that do not fit
// strictly into other layers.
//
// It contains the rate limiter client (Redis or in-memory) and the
// JSON client for calls to remote services.
package lib
