// Package model defines database models
package model

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// HasherKey is the gorm setting under which the store exposes the
// PasswordHasher used by the User save hook.
const HasherKey = "notedai:password_hasher"

var ErrNoHasher = errors.New("no password hasher configured")

type PasswordHasher interface {
	GenerateFromPassword(p string) (string, error)
}

type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type Plan string

const (
	PlanFree       Plan = "free"
	PlanPro        Plan = "pro"
	PlanEnterprise Plan = "enterprise"
)

type User struct {
	ID       string `gorm:"primaryKey;size:16"`
	Name     string `gorm:"not null"`
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"` // argon2id PHC string, never plaintext

	Bio      string `gorm:"size:160"`
	JobTitle string
	Location string
	Timezone string
	Avatar   string // object key in the avatar bucket

	NotificationsEnabled      bool  `gorm:"not null"`
	EmailNotificationsEnabled bool  `gorm:"not null"`
	SoundNotificationsEnabled bool  `gorm:"not null"`
	Theme                     Theme `gorm:"size:16;not null"`

	Role     Role `gorm:"size:16;not null"`
	Plan     Plan `gorm:"size:16;not null"`
	Verified bool `gorm:"not null"`

	VerificationToken        *string `gorm:"index"`
	VerificationTokenExpires *time.Time
	ResetPasswordToken       *string `gorm:"index"`
	ResetPasswordExpires     *time.Time

	LastActive *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	pendingPassword string
}

// NewUser returns a user with every preference at its default. Defaults
// live here and not in column tags because gorm would swap a false bool
// for a true column default on insert.
func NewUser(id, name, email string) *User {
	return &User{
		ID:                        id,
		Name:                      name,
		Email:                     email,
		NotificationsEnabled:      true,
		EmailNotificationsEnabled: true,
		SoundNotificationsEnabled: true,
		Theme:                     ThemeSystem,
		Role:                      RoleUser,
		Plan:                      PlanFree,
	}
}

// SetPassword queues a plaintext password. It's hashed by the save hook
// and never reaches the database as is.
func (u *User) SetPassword(p string) {
	u.pendingPassword = p
}

// BeforeSave hashes a password queued with SetPassword. Saves that don't
// touch the password leave the stored hash alone.
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.pendingPassword == "" {
		return nil
	}

	v, _ := tx.Get(HasherKey)
	hasher, ok := v.(PasswordHasher)
	if !ok || hasher == nil {
		return ErrNoHasher
	}

	hash, err := hasher.GenerateFromPassword(u.pendingPassword)
	if err != nil {
		return err
	}

	u.Password = hash
	u.pendingPassword = ""
	tx.Statement.SetColumn("password", hash)

	return nil
}

// WithoutPassword is a query scope that leaves the password column out of
// the result. Every lookup that doesn't verify a password should use it.
func WithoutPassword(db *gorm.DB) *gorm.DB {
	return db.Omit("password")
}

// UserSummary is what the auth endpoints return.
type UserSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// UserProfile is the full sanitized user returned by the settings endpoints.
type UserProfile struct {
	ID                        string    `json:"id"`
	Name                      string    `json:"name"`
	Email                     string    `json:"email"`
	Bio                       string    `json:"bio"`
	JobTitle                  string    `json:"jobTitle"`
	Location                  string    `json:"location"`
	Timezone                  string    `json:"timezone"`
	Avatar                    string    `json:"avatar"`
	NotificationsEnabled      bool      `json:"notificationsEnabled"`
	EmailNotificationsEnabled bool      `json:"emailNotificationsEnabled"`
	SoundNotificationsEnabled bool      `json:"soundNotificationsEnabled"`
	Theme                     Theme     `json:"theme"`
	Plan                      Plan      `json:"plan"`
	Verified                  bool      `json:"isVerified"`
	CreatedAt                 time.Time `json:"createdAt"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

func (u *User) Profile() UserProfile {
	return UserProfile{
		ID:                        u.ID,
		Name:                      u.Name,
		Email:                     u.Email,
		Bio:                       u.Bio,
		JobTitle:                  u.JobTitle,
		Location:                  u.Location,
		Timezone:                  u.Timezone,
		Avatar:                    u.Avatar,
		NotificationsEnabled:      u.NotificationsEnabled,
		EmailNotificationsEnabled: u.EmailNotificationsEnabled,
		SoundNotificationsEnabled: u.SoundNotificationsEnabled,
		Theme:                     u.Theme,
		Plan:                      u.Plan,
		Verified:                  u.Verified,
		CreatedAt:                 u.CreatedAt,
		UpdatedAt:                 u.UpdatedAt,
	}
}
