package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanTransaction представляет платеж по кредиту.
// Журнал append-only: каждый платеж добавляет новую запись,
// рассчитанную от предыдущей. Текущий остаток долга — это Outstanding
// последней записи (или LoanAmount счета, если записей нет).
type LoanTransaction struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"`
	AccountID   uint            `gorm:"column:account_id;not null;index"`
	DueDate     time.Time       `gorm:"column:due_date;not null"` // Плановая дата платежа
	PaidDate    *time.Time      `gorm:"column:paid_date"`         // Фактическая дата платежа
	Penalty     decimal.Decimal `gorm:"column:penalty;type:decimal(20,2);not null;default:0"`
	Amount      decimal.Decimal `gorm:"column:amount;type:decimal(20,2);not null"`
	Outstanding decimal.Decimal `gorm:"column:outstanding;type:decimal(20,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (LoanTransaction) TableName() string {
	return "loan_transactions"
}
