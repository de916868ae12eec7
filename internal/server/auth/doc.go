// Package auth holds the session-authentication primitives of the account
// service: password hashing, signed bearer tokens, and the registry of
// per-user invalidation watermarks that revokes tokens issued before a
// credential change.
package auth
