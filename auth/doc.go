// Package auth holds the request identity model shared by both services.
//
// A Principal is derived only from a token that passed the Verifier; it is
// never persisted and lives for one inbound request. Subpackages:
//
//   - auth/jwt       signed token encoding and decoding
//   - auth/password  password hashing (bcrypt, argon2id)
//   - auth/authctx   request-scoped Principal binding
package auth
