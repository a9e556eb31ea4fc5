// Package validation checks the declared parts of an incoming request before
// the handler runs.
//
// Route schemas are JSON schemas compiled once by a Registry. Validation
// coerces compatible scalars (numeric strings, booleans, single query values
// into arrays), fills declared defaults and writes the normalized data back
// onto the request so later stages read it through the request package.
//
// The package also keeps the struct-tag flow (BindAndValidate) and the
// deprecated rule based flow (Rule) built on go-playground/validator.
package validation
