// Package sqlerr translates database driver errors into domain errors.
//
// It parses cryptic SQLSTATE codes from pgx and converts them into
// user-friendly errs.HTTPError values (e.g. a unique violation becomes a
// 400 with code USER_ALREADY_EXISTS) before the exception taxonomy runs.
package sqlerr
