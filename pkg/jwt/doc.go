// Package jwt inspects access tokens issued by the booking backend without
// verifying them. The client never holds the backend's signing key, so it
// treats tokens as opaque bearer material; the only client-side uses are
// cosmetic (showing the logged-in subject) and scheduling (knowing when the
// token will expire so a refresh can be anticipated).
package jwt
