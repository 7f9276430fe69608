package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FixedDepositAccount представляет срочный вклад.
// Сумма вклада и ставка фиксируются при создании и не меняются.
// Сумма к выплате не хранится, а вычисляется при закрытии.
type FixedDepositAccount struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"`
	Number        string          `gorm:"column:number;unique;not null;size:32"`
	CustomerID    uint            `gorm:"column:customer_id;not null;index"`
	Customer      Customer        `gorm:"foreignKey:CustomerID;references:ID"`
	DepositAmount decimal.Decimal `gorm:"column:deposit_amount;type:decimal(20,2);not null"`
	FDROI         decimal.Decimal `gorm:"column:fd_roi;type:decimal(5,2);not null"` // Годовая ставка, %
	TenureMonths  int             `gorm:"column:tenure_months;not null"`
	StartDate     time.Time       `gorm:"column:start_date;not null"`
	EndDate       time.Time       `gorm:"column:end_date;not null"`
	// Счет, с которого был профинансирован вклад.
	// Нужен для возврата средств при отклонении заявки.
	FundingAccountID *uint         `gorm:"column:funding_account_id"`
	Status           AccountStatus `gorm:"column:status;type:varchar(20);not null;default:'PENDING'"`
	CreatedAt        time.Time     `gorm:"column:created_at;default:CURRENT_TIMESTAMP"`
	UpdatedAt        time.Time     `gorm:"column:updated_at;default:CURRENT_TIMESTAMP"`
}

func (FixedDepositAccount) TableName() string {
	return "fixed_deposit_accounts"
}
