package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountStatus представляет статус счета.
// Переходы: PENDING -> ACTIVE | REJECTED, ACTIVE -> CLOSED.
// Из CLOSED и REJECTED переходов нет.
type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "PENDING"  // Ожидает одобрения
	AccountStatusActive   AccountStatus = "ACTIVE"   // Активный счет
	AccountStatusClosed   AccountStatus = "CLOSED"   // Закрытый счет
	AccountStatusRejected AccountStatus = "REJECTED" // Заявка отклонена
)

// SavingsAccount представляет сберегательный счет.
// Баланс изменяется только через операции леджера,
// статус — только через переходы жизненного цикла.
type SavingsAccount struct {
	ID         uint            `gorm:"primaryKey;autoIncrement"`
	Number     string          `gorm:"column:number;unique;not null;size:32"`
	CustomerID uint            `gorm:"column:customer_id;not null;index"`
	Customer   Customer        `gorm:"foreignKey:CustomerID;references:ID"`
	Balance    decimal.Decimal `gorm:"column:balance;type:decimal(20,2);not null;default:0"`
	Status     AccountStatus   `gorm:"column:status;type:varchar(20);not null;default:'PENDING'"`
	CreatedAt  time.Time       `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time       `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (SavingsAccount) TableName() string {
	return "savings_accounts"
}

// IsOpen сообщает, занимает ли счет лимит "один открытый счет на клиента"
func (a *SavingsAccount) IsOpen() bool {
	return a.Status == AccountStatusPending || a.Status == AccountStatusActive
}
