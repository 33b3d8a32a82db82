// Package validation validates request DTOs with go-playground/validator
// struct tags and reports failures as 400 AppErrors.
//
//	type RegisterRequest struct {
//	    Username string `json:"username" validate:"required,username"`
//	    Email    string `json:"email" validate:"required,email"`
//	}
//	if err := validation.Validate(req); err != nil { ... }
//
// The custom "username" tag accepts 3 to 50 letters, digits or underscores.
package validation
