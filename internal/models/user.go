package models

import "time"

// User is the public profile of a TeachMate member.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName,omitempty"`
	Email        string    `json:"email,omitempty"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	Bio          string    `json:"bio,omitempty"`
	School       string    `json:"school,omitempty"`
	Subjects     []string  `json:"subjects,omitempty"`
	Language     string    `json:"language,omitempty"`
	Online       bool      `json:"online"`
	LastActiveAt time.Time `json:"lastActiveAt,omitempty"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
}

// ProfileUpdate carries the editable fields of the signed-in user.
type ProfileUpdate struct {
	FullName  *string  `json:"fullName,omitempty"`
	AvatarURL *string  `json:"avatarUrl,omitempty"`
	Bio       *string  `json:"bio,omitempty"`
	School    *string  `json:"school,omitempty"`
	Subjects  []string `json:"subjects,omitempty"`
	Language  *string  `json:"language,omitempty"`
}

// RegisterInput is the sign-up payload.
type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"fullName,omitempty"`
	School   string `json:"school,omitempty"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Report flags another user for moderation.
type Report struct {
	Reason  string `json:"reason" validate:"required,max=500"`
	Details string `json:"details,omitempty"`
}
