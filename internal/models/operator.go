// internal/models/operator.go
package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Operator is a dashboard user. Identity management beyond token issuance
// (SSO, directory sync) lives outside this service.
type Operator struct {
	BaseModel
	Username     string         `json:"username" gorm:"uniqueIndex;size:50;not null"`
	Email        string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash string         `json:"-" gorm:"size:255;not null"`
	Role         OperatorRole   `json:"role" gorm:"type:varchar(20);not null"`
	Status       OperatorStatus `json:"status" gorm:"type:varchar(20);default:'active'"`
	LastLoginAt  *time.Time     `json:"last_login_at"`
}

func (o *Operator) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	o.PasswordHash = string(hashedPassword)
	return nil
}

func (o *Operator) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password))
}
