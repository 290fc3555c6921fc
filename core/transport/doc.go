// Package transport implements the session transport for the booking API:
// a single authenticated-request primitive plus the anti-forgery token
// lifecycle around it.
//
// Every outbound call goes through Client.Request (or the typed Do helper),
// which guarantees three things: the HttpOnly refresh cookie travels via the
// shared cookie jar, mutating verbs carry the x-csrf-token header whenever a
// token is held, and stored bearer tokens are attached as Authorization
// headers. Failures are normalized into *RequestError; nothing here retries,
// retry policy belongs to the caller.
//
// The anti-forgery token is fetched lazily before the first request,
// replaced on every privilege change (login, logout), and never persisted.
// A failed issuance is a logged degradation, not an error: requests proceed
// unprotected and the backend decides their fate.
//
// Typical usage:
//
//	client, err := transport.New(transport.DefaultConfig(),
//		transport.WithStorage(store),
//		transport.WithLogger(log),
//	)
//	if err != nil {
//		return err
//	}
//
//	tour, err := transport.Do[Tour](ctx, client, http.MethodGet, "/api/v1/tours/42", nil)
package transport
