package services

import (
	"errors"
	"fmt"
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DepositService управляет срочными вкладами: открытие с финансированием
// со сберегательного счета, одобрение/отклонение заявки, закрытие с
// выплатой. Ставка фиксируется на момент создания вклада и дальше
// не пересматривается.
type DepositService struct {
	db              *gorm.DB
	alloc           utils.IDAllocator
	staffAutoActive bool
}

// NewDepositService создает новый экземпляр DepositService
func NewDepositService(db *gorm.DB, alloc utils.IDAllocator, staffAutoActive bool) *DepositService {
	return &DepositService{
		db:              db,
		alloc:           alloc,
		staffAutoActive: staffAutoActive,
	}
}

// OpenFixedDeposit открывает срочный вклад. Минимальная сумма — 10000.
// При fundFromSavings сумма списывается с активного сберегательного
// счета клиента условным UPDATE: если средств не хватает, вклад
// не создается. Списание, запись журнала и создание вклада — одна
// транзакция.
func (s *DepositService) OpenFixedDeposit(caller Caller, customerID uint, amount decimal.Decimal, tenureMonths int, fundFromSavings bool) (*models.FixedDepositAccount, error) {
	if !roleCanOpen(caller.Role, AccountTypeFixedDeposit) {
		return nil, NewNotFoundError("операция недоступна для данной роли")
	}
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}
	if amount.LessThan(MinDepositAmount) {
		return nil, NewValidationError("сумма вклада не может быть меньше 10000")
	}
	if tenureMonths <= 0 {
		return nil, NewValidationError("срок вклада должен быть больше нуля")
	}
	amount = amount.Round(2)

	var account *models.FixedDepositAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("клиент не найден")
			}
			return NewStorageError("ошибка при поиске клиента", err)
		}

		now := time.Now()
		rate := FDRate(tenureMonths, IsSenior(Age(customer.DateOfBirth, now)))

		account = &models.FixedDepositAccount{
			Number:        s.alloc.AccountNumber("FD"),
			CustomerID:    customerID,
			DepositAmount: amount,
			FDROI:         decimal.NewFromFloat(rate),
			TenureMonths:  tenureMonths,
			StartDate:     now,
			EndDate:       now.AddDate(0, tenureMonths, 0),
			Status:        initialStatus(caller, s.staffAutoActive),
		}

		if fundFromSavings {
			source, err := findActiveSavings(tx, customerID)
			if err != nil {
				return err
			}
			if err := debitSavings(tx, source.ID, amount); err != nil {
				return err
			}
			account.FundingAccountID = &source.ID
			if err := tx.Create(account).Error; err != nil {
				return NewStorageError("ошибка при создании вклада", err)
			}
			entry := &models.SavingsTransaction{
				AccountID:   source.ID,
				Type:        models.SavingsTransactionWithdrawal,
				Amount:      amount,
				Description: "Перевод во вклад " + account.Number,
			}
			if err := tx.Create(entry).Error; err != nil {
				return NewStorageError("ошибка при записи операции", err)
			}
		} else {
			if err := tx.Create(account).Error; err != nil {
				return NewStorageError("ошибка при создании вклада", err)
			}
		}

		fdEntry := &models.FDTransaction{
			AccountID:   account.ID,
			Type:        models.FDTransactionCreation,
			Amount:      amount,
			Description: fmt.Sprintf("Открытие вклада на %d мес. под %.2f%%", tenureMonths, rate),
		}
		if err := tx.Create(fdEntry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ApproveFixedDeposit одобряет заявку на вклад
func (s *DepositService) ApproveFixedDeposit(accountID uint) error {
	return s.decideFixedDeposit(accountID, true)
}

// RejectFixedDeposit отклоняет заявку на вклад. Если вклад был
// профинансирован со сберегательного счета, средства возвращаются
// на него в той же транзакции.
func (s *DepositService) RejectFixedDeposit(accountID uint) error {
	return s.decideFixedDeposit(accountID, false)
}

func (s *DepositService) decideFixedDeposit(accountID uint, approve bool) error {
	newStatus := models.AccountStatusActive
	if !approve {
		newStatus = models.AccountStatusRejected
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var account models.FixedDepositAccount
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("вклад не найден")
			}
			return NewStorageError("ошибка при поиске вклада", err)
		}

		res := tx.Model(&models.FixedDepositAccount{}).
			Where("id = ? AND status = ?", accountID, models.AccountStatusPending).
			Updates(map[string]interface{}{"status": newStatus, "updated_at": time.Now()})
		if res.Error != nil {
			return NewStorageError("ошибка при обновлении статуса вклада", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewStateError("решение возможно только по заявке в статусе PENDING")
		}

		// Возврат средств при отклонении профинансированной заявки
		if !approve && account.FundingAccountID != nil {
			if err := creditSavings(tx, *account.FundingAccountID, account.DepositAmount); err != nil {
				return err
			}
			entry := &models.SavingsTransaction{
				AccountID:   *account.FundingAccountID,
				Type:        models.SavingsTransactionDeposit,
				Amount:      account.DepositAmount,
				Description: "Возврат средств по отклоненной заявке на вклад " + account.Number,
			}
			if err := tx.Create(entry).Error; err != nil {
				return NewStorageError("ошибка при записи операции", err)
			}
		}

		return nil
	})
}

// CloseFixedDeposit закрывает активный вклад и выплачивает сумму на
// активный сберегательный счет клиента. На дату окончания и позже
// выплачивается полная сумма к погашению; раньше — накопленная сумма
// за фактически прошедшие дни. Выплата, обе записи журнала и смена
// статуса фиксируются одной транзакцией.
func (s *DepositService) CloseFixedDeposit(caller Caller, accountID uint) (*models.FixedDepositAccount, decimal.Decimal, error) {
	start := time.Now()
	account, payout, err := s.closeFixedDeposit(caller, accountID)
	utils.LogOperation("fd_closure", start, err)
	return account, payout, err
}

func (s *DepositService) closeFixedDeposit(caller Caller, accountID uint) (*models.FixedDepositAccount, decimal.Decimal, error) {
	var account models.FixedDepositAccount
	var payout decimal.Decimal

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("вклад не найден")
			}
			return NewStorageError("ошибка при поиске вклада", err)
		}
		if !caller.OwnsCustomer(account.CustomerID) {
			return NewNotFoundError("вклад не найден")
		}
		if account.Status != models.AccountStatusActive {
			return NewStateError("закрыть можно только активный вклад")
		}

		target, err := findActiveSavings(tx, account.CustomerID)
		if err != nil {
			return err
		}

		payout = s.payoutAmount(&account, time.Now())

		if err := creditSavings(tx, target.ID, payout); err != nil {
			return err
		}
		entry := &models.SavingsTransaction{
			AccountID:   target.ID,
			Type:        models.SavingsTransactionDeposit,
			Amount:      payout,
			Description: "Выплата по вкладу " + account.Number,
		}
		if err := tx.Create(entry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		fdEntry := &models.FDTransaction{
			AccountID:   account.ID,
			Type:        models.FDTransactionClosure,
			Amount:      payout,
			Description: "Выплата при закрытии вклада",
		}
		if err := tx.Create(fdEntry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		res := tx.Model(&models.FixedDepositAccount{}).
			Where("id = ? AND status = ?", account.ID, models.AccountStatusActive).
			Updates(map[string]interface{}{"status": models.AccountStatusClosed, "updated_at": time.Now()})
		if res.Error != nil {
			return NewStorageError("ошибка при закрытии вклада", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewStateError("закрыть можно только активный вклад")
		}

		account.Status = models.AccountStatusClosed
		return nil
	})
	if err != nil {
		return nil, decimal.Zero, err
	}

	return &account, payout, nil
}

// payoutAmount вычисляет сумму к выплате на момент закрытия
func (s *DepositService) payoutAmount(account *models.FixedDepositAccount, at time.Time) decimal.Decimal {
	rate, _ := account.FDROI.Float64()
	if !at.Before(account.EndDate) {
		return MaturityValue(account.DepositAmount, rate, account.TenureMonths)
	}
	elapsedDays := int(at.Sub(account.StartDate).Hours() / 24)
	return AccruedValue(account.DepositAmount, rate, elapsedDays)
}

// GetFixedDepositByID возвращает вклад по ID с проверкой владения
func (s *DepositService) GetFixedDepositByID(caller Caller, accountID uint) (*models.FixedDepositAccount, error) {
	var account models.FixedDepositAccount
	if err := s.db.Preload("Customer").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("вклад не найден")
		}
		return nil, NewStorageError("ошибка при поиске вклада", err)
	}
	if !caller.OwnsCustomer(account.CustomerID) {
		return nil, NewNotFoundError("вклад не найден")
	}
	return &account, nil
}

// GetFixedDepositsByCustomer возвращает все вклады клиента
func (s *DepositService) GetFixedDepositsByCustomer(caller Caller, customerID uint) ([]models.FixedDepositAccount, error) {
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}
	var accounts []models.FixedDepositAccount
	if err := s.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, NewStorageError("ошибка при получении списка вкладов", err)
	}
	return accounts, nil
}

// ListFDTransactions возвращает журнал операций вклада, новые записи первыми
func (s *DepositService) ListFDTransactions(caller Caller, accountID uint) ([]models.FDTransaction, error) {
	if _, err := s.GetFixedDepositByID(caller, accountID); err != nil {
		return nil, err
	}
	var entries []models.FDTransaction
	if err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, NewStorageError("ошибка при получении журнала операций", err)
	}
	return entries, nil
}

// MaturedActive возвращает активные вклады, срок которых истек не
// позднее asOf. Используется планировщиком автоматической выплаты.
func (s *DepositService) MaturedActive(asOf time.Time) ([]models.FixedDepositAccount, error) {
	var accounts []models.FixedDepositAccount
	if err := s.db.Where("status = ? AND end_date <= ?", models.AccountStatusActive, asOf).
		Find(&accounts).Error; err != nil {
		return nil, NewStorageError("ошибка при поиске истекших вкладов", err)
	}
	return accounts, nil
}
