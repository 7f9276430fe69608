package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// Customer представляет клиента банка
type Customer struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"`
	FirstName   string    `gorm:"column:first_name;not null;size:50"`
	LastName    string    `gorm:"column:last_name;not null;size:50"`
	Email       string    `gorm:"column:email;unique;not null;size:100;index"`
	PAN         string    `gorm:"column:pan;unique;not null;size:10"`
	Phone       string    `gorm:"column:phone;size:15"`
	Address     string    `gorm:"column:address;size:255"`
	Gender      string    `gorm:"column:gender;size:1"` // M или F
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null"`
	Password    string    `gorm:"column:password;not null;size:100"`
	CreatedAt   time.Time `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt   time.Time `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Customer) TableName() string {
	return "customers"
}

// BeforeCreate хук для валидации перед созданием
func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	if len(c.FirstName) < 2 || len(c.FirstName) > 50 {
		return errors.New("first name must be between 2 and 50 characters")
	}
	if len(c.LastName) < 2 || len(c.LastName) > 50 {
		return errors.New("last name must be between 2 and 50 characters")
	}
	if len(c.PAN) != 10 {
		return errors.New("pan must be exactly 10 characters")
	}
	if c.DateOfBirth.IsZero() {
		return errors.New("date of birth is required")
	}
	return nil
}

// FullName возвращает полное имя клиента
func (c *Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}
