package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanAccount представляет кредитный счет.
// Сумма, ставка, срок и платеж фиксируются при создании.
// Остаток долга не хранится на счете: он равен полю Outstanding
// последней записи LoanTransaction, либо LoanAmount, если записей нет.
type LoanAccount struct {
	ID           uint            `gorm:"primaryKey;autoIncrement"`
	Number       string          `gorm:"column:number;unique;not null;size:32"`
	CustomerID   uint            `gorm:"column:customer_id;not null;index"`
	Customer     Customer        `gorm:"foreignKey:CustomerID;references:ID"`
	LoanAmount   decimal.Decimal `gorm:"column:loan_amount;type:decimal(20,2);not null"`
	LNROI        decimal.Decimal `gorm:"column:ln_roi;type:decimal(5,2);not null"` // Годовая ставка, %
	TenureMonths int             `gorm:"column:tenure_months;not null"`
	EMIAmount    decimal.Decimal `gorm:"column:emi_amount;type:decimal(20,2);not null"`
	StartDate    time.Time       `gorm:"column:start_date;not null"`
	Status       AccountStatus   `gorm:"column:status;type:varchar(20);not null;default:'PENDING'"`
	CreatedAt    time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (LoanAccount) TableName() string {
	return "loan_accounts"
}
