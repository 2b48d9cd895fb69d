package domain

import "time"

type User struct {
	ID          UserID    `gorm:"primaryKey" db:"id" json:"id"`
	Name        string    `gorm:"type:text;not null" db:"name" json:"name"`
	Email       string    `gorm:"type:text;not null;uniqueIndex:ux_users_email" db:"email" json:"email"`
	Password    string    `gorm:"type:text;not null" db:"password" json:"-"`
	PhoneNumber int64     `gorm:"not null;uniqueIndex:ux_users_phone" db:"phone_number" json:"phone_number"`
	CreatedAt   time.Time `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// PendingUser is a validated registration that has not been activated yet.
// It only ever lives inside a signed activation token; Password holds the hash.
type PendingUser struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber int64  `json:"phone_number"`
}

func (p PendingUser) ToUser() *User {
	return &User{
		Name:        p.Name,
		Email:       p.Email,
		Password:    p.Password,
		PhoneNumber: p.PhoneNumber,
	}
}

// ActivationPayload is the verified content of an activation token.
type ActivationPayload struct {
	User PendingUser
	Code string
}
