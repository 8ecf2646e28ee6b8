package entities

import "time"

// User is the profile document stored in the users collection, keyed by the
// identity provider's account identifier.
type User struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id" firestore:"-"`
	Name      string    `gorm:"size:200" json:"name" firestore:"name"`
	Email     string    `gorm:"uniqueIndex;size:255" json:"email" firestore:"email"`
	CreatedAt time.Time `json:"-" firestore:"-"`
}

func (User) TableName() string {
	return "users"
}

// Account is a credential record held by the self-hosted identity provider.
type Account struct {
	UID          string `gorm:"primaryKey;size:64" json:"uid"`
	Email        string `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string `gorm:"size:100" json:"-"`
	Disabled     bool   `json:"disabled"`
	// Session cookies issued before this instant are treated as revoked.
	TokensValidAfter time.Time `json:"tokens_valid_after"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Account) TableName() string {
	return "accounts"
}
