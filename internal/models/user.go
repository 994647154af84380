// internal/models/user.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is read by the transaction core for role and country checks. Account
// lifecycle (registration, login, profile) lives in the external auth surface.
type User struct {
	BaseModel
	Username     string     `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string     `json:"-" gorm:"size:255;not null"`
	Role         UserRole   `json:"role" gorm:"type:varchar(20);not null;default:'buyer'"`
	Status       UserStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	Country      string     `json:"country" gorm:"size:2"`
	ProfileData  JSONB      `json:"profile_data" gorm:"type:jsonb"`
	LastLoginAt  *time.Time `json:"last_login_at"`

	// Relationships
	Resources   []Resource          `json:"resources,omitempty" gorm:"foreignKey:SellerID"`
	Purchases   []Purchase          `json:"purchases,omitempty" gorm:"foreignKey:BuyerID"`
	Withdrawals []WithdrawalRequest `json:"withdrawals,omitempty" gorm:"foreignKey:SellerID"`
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}
