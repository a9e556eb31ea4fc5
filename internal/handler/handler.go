// Package handler implements the HTTP handlers served by the router.
//
// Handlers are route stages (route.HandlerFunc): they return a value for the
// success envelope or an error for the failure taxonomy, and never write the
// response themselves.
package handler
