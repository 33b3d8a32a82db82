package identity

import "time"

// User is the credential record. PasswordHash never leaves the service.
type User struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Username     string    `gorm:"size:50;not null;uniqueIndex:idx_users_username"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:idx_users_email"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

// TableName pins the table name shared with the SQL migrations.
func (User) TableName() string { return "users" }

// Summary returns the public view of the user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
	}
}

// UserSummary is the user representation returned over HTTP.
type UserSummary struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// Availability answers the public username and email checks.
type Availability struct {
	Available bool `json:"available"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}
