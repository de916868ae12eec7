// Package client contains client-side building blocks for the account
// service.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic contract (see the Client interface) covering
//     Register, Login, Refresh, UpdateProfile, DeleteAccount and GetUser.
//  2. A concrete gRPC implementation (see GRPCClient) that manages a
//     connection, injects the bearer token via an interceptor, remembers the
//     token returned by token-issuing calls, and maps gRPC status codes to
//     sentinel errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations, used to keep the last
//     token per server between CLI invocations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors that callers can match with
// errors.Is: ErrUnavailable, ErrUnauthorized, ErrWrongPassword, ErrConflict,
// ErrNotFound, ErrInvalidInput and ErrNoSession.
package client
