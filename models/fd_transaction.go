package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FDTransactionType представляет тип операции по вкладу
type FDTransactionType string

const (
	FDTransactionCreation FDTransactionType = "CREATION" // Открытие вклада
	FDTransactionClosure  FDTransactionType = "CLOSURE"  // Выплата при закрытии
)

// FDTransaction представляет запись в журнале операций вклада.
// Журнал append-only: записи не изменяются.
type FDTransaction struct {
	ID          uint              `gorm:"primaryKey;autoIncrement"`
	AccountID   uint              `gorm:"column:account_id;not null;index"`
	Type        FDTransactionType `gorm:"column:type;type:varchar(20);not null"`
	Amount      decimal.Decimal   `gorm:"column:amount;type:decimal(20,2);not null"`
	Description string            `gorm:"column:description;size:255"`
	CreatedAt   time.Time         `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
}

func (FDTransaction) TableName() string {
	return "fd_transactions"
}
