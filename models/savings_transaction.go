package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsTransactionType представляет тип операции по сберегательному счету
type SavingsTransactionType string

const (
	SavingsTransactionDeposit    SavingsTransactionType = "DEPOSIT"    // Пополнение
	SavingsTransactionWithdrawal SavingsTransactionType = "WITHDRAWAL" // Снятие
)

// SavingsTransaction представляет запись в журнале операций сберегательного счета.
// Журнал append-only: записи не изменяются и не удаляются.
type SavingsTransaction struct {
	ID          uint                   `gorm:"primaryKey;autoIncrement"`
	AccountID   uint                   `gorm:"column:account_id;not null;index"`
	Type        SavingsTransactionType `gorm:"column:type;type:varchar(20);not null"`
	Amount      decimal.Decimal        `gorm:"column:amount;type:decimal(20,2);not null"`
	Description string                 `gorm:"column:description;size:255"`
	CreatedAt   time.Time              `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (SavingsTransaction) TableName() string {
	return "savings_transactions"
}
