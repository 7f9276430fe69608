package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

// EmployeeType представляет тип сотрудника
type EmployeeType string

const (
	EmployeeTypeStaff   EmployeeType = "STAFF"   // Операционист
	EmployeeTypeManager EmployeeType = "MANAGER" // Менеджер
)

// Department представляет отдел, к которому привязан операционист
type Department string

const (
	DepartmentSavings Department = "SAVINGS" // Отдел вкладов и счетов
	DepartmentLoan    Department = "LOAN"    // Кредитный отдел
)

// Employee представляет сотрудника банка
type Employee struct {
	ID         uint         `gorm:"primaryKey;autoIncrement"`
	FirstName  string       `gorm:"column:first_name;not null;size:50"`
	LastName   string       `gorm:"column:last_name;not null;size:50"`
	Email      string       `gorm:"column:email;unique;not null;size:100;index"`
	PAN        string       `gorm:"column:pan;unique;not null;size:10"`
	Type       EmployeeType `gorm:"column:type;type:varchar(20);not null;default:'STAFF'"`
	Department Department   `gorm:"column:department;type:varchar(20);not null;default:'SAVINGS'"`
	Password   string       `gorm:"column:password;not null;size:100"`
	Active     bool         `gorm:"column:active;not null;default:true"`
	CreatedAt  time.Time    `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time    `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (Employee) TableName() string {
	return "employees"
}

// BeforeCreate хук для валидации перед созданием
func (e *Employee) BeforeCreate(tx *gorm.DB) error {
	if len(e.PAN) != 10 {
		return errors.New("pan must be exactly 10 characters")
	}
	if e.Type != EmployeeTypeStaff && e.Type != EmployeeTypeManager {
		return errors.New("unknown employee type")
	}
	if e.Department != DepartmentSavings && e.Department != DepartmentLoan {
		return errors.New("unknown department")
	}
	return nil
}

// FullName возвращает полное имя сотрудника
func (e *Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}
