package entities

import "time"

// EmailVerificationToken is a single-use credential mailed after registration.
type EmailVerificationToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;size:64;not null"`
	Expires   time.Time `gorm:"index;not null"`
	UserID    uint      `gorm:"index;not null"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (EmailVerificationToken) TableName() string {
	return "email_verification_tokens"
}

// PasswordResetToken is a single-use credential mailed on a reset request.
// A user holds at most one at a time.
type PasswordResetToken struct {
	ID        uint      `gorm:"primaryKey"`
	Token     string    `gorm:"uniqueIndex;size:64;not null"`
	Expires   time.Time `gorm:"index;not null"`
	UserID    uint      `gorm:"index;not null"`
	User      User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
