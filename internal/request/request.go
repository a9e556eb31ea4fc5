// Package request gives stages uniform access to the parts of an incoming
// request (path params, query, headers, body) and to the values earlier
// middleware stored on the echo context.
//
// Parts read through Get are the raw request data until a validation stage
// writes normalized data back with Set; from then on later stages observe the
// coerced and defaulted values.
package request
