// Package local implements the authstate.IdentityClient boundary against a
// bun-backed accounts table: bcrypt password verification, HS256 session
// tokens, and an in-process session-change broadcast. It serves deployments
// that self-host identity instead of delegating to a hosted provider, and it
// backs the integration tests for the session store.
package local
