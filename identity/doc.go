// Package identity owns user accounts and issues bearer tokens.
//
// Service is the transport-independent core: Login (the token issuer),
// Register, availability checks and same-user profile reads. Handler binds
// it to Gin routes:
//
//	POST /auth/login             public
//	POST /auth/register          public
//	GET  /auth/check-username    public
//	GET  /auth/check-email       public
//	GET  /users/me               bearer
//	GET  /users/:id              bearer, same user only
//	GET  /internal/users/:id     service credential
//
// Users are persisted through Store; GormStore is the SQLite implementation
// and Migrations holds its schema.
package identity
