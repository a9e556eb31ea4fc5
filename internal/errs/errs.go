// Package errs defines the domain error type raised by handlers and stages.
//
// A domain error carries its own HTTP status, a machine-readable code and,
// optionally, a custom payload that replaces the generated error body on the
// wire. Every other failure kind is classified by the exception package.
package errs
