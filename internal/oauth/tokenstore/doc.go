// Package tokenstore provides oauth.TokenStore backends for carrying an OAuth1
// temporary token across the authorization redirect.
//
// Every backend is scoped to a single attempt: the session backend by the
// session itself, the shared backends (cache, postgres) by an attempt id kept
// in the session. Save overwrites, Load reports oauth.ErrNotFound when nothing
// is stored and Clear never fails on a missing entry.
package tokenstore
