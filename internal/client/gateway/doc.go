// Package gateway is the single HTTP client every backend call goes through.
//
// For each request it:
//
//   - attaches "Authorization: Bearer <token>" when the token source returns
//     a non-empty token;
//   - turns any failure into one human-readable message (see Normalize) and
//     hands it to the error sink exactly once;
//   - on 401 calls the unauthorized handler with the token the request was
//     sent with, so the session can be cleared.
//
// Cancelled requests are returned as-is: nothing is published and the
// unauthorized handler is not called.
package gateway
