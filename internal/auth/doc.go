// Package auth provides token authentication and authorisation for the
// Homematic bridge API.
//
// Callers present an HS256 JWT carrying a role claim. Roles map to a fixed
// set of permissions (compile-time, no lookup):
//   - viewer reads devices, entities and interface state
//   - operator additionally switches entities
//   - admin additionally refreshes the caches
//
// Tokens are minted offline by cmd/hmtoken with the shared secret.
package auth
