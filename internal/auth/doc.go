// Package auth turns request credentials into the authenticated account the
// audit core acts on behalf of.
//
// Two modes exist. In jwt mode callers send "Authorization: Bearer <token>"
// where the token is HS256-signed and its subject is the account. In header
// mode (development only) the account is read verbatim from a configured
// header. Missing credentials are not an error here: reads are open, and the
// write path rejects anonymous callers itself.
package auth
