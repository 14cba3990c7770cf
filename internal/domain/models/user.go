package models

import "time"

// User is an account record. The raw password is never stored.
type User struct {
	UserID       string    `json:"userId"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserRecord is what CreateUser hands back to the caller.
type UserRecord struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// SignupRequest is the body of POST /api/auth/signup.
type SignupRequest struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string     `json:"token"`
	User  UserRecord `json:"user"`
}
