package services

import (
	"errors"
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountService управляет жизненным циклом сберегательных счетов:
// открытие, одобрение/отклонение, закрытие. Баланс здесь не изменяется,
// кроме выдачи остатка при закрытии; движение денег — в LedgerService.
type AccountService struct {
	db              *gorm.DB
	alloc           utils.IDAllocator
	staffAutoActive bool
}

// NewAccountService создает новый экземпляр AccountService
func NewAccountService(db *gorm.DB, alloc utils.IDAllocator, staffAutoActive bool) *AccountService {
	return &AccountService{
		db:              db,
		alloc:           alloc,
		staffAutoActive: staffAutoActive,
	}
}

// OpenSavings открывает сберегательный счет с первоначальным взносом.
// У клиента может быть не более одного незакрытого счета.
func (s *AccountService) OpenSavings(caller Caller, customerID uint, initialDeposit decimal.Decimal) (*models.SavingsAccount, error) {
	if !roleCanOpen(caller.Role, AccountTypeSavings) {
		return nil, NewNotFoundError("операция недоступна для данной роли")
	}
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}
	if initialDeposit.LessThan(MinSavingsOpenAmount) {
		return nil, NewValidationError("первоначальный взнос не может быть меньше 1000")
	}

	var account *models.SavingsAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("клиент не найден")
			}
			return NewStorageError("ошибка при поиске клиента", err)
		}

		// Проверяем лимит: один незакрытый счет на клиента
		var existing models.SavingsAccount
		err := tx.Where("customer_id = ? AND status IN ?", customerID,
			[]models.AccountStatus{models.AccountStatusPending, models.AccountStatusActive}).
			First(&existing).Error
		if err == nil {
			return NewConflictError("у клиента уже есть незакрытый сберегательный счет")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return NewStorageError("ошибка при проверке существующих счетов", err)
		}

		account = &models.SavingsAccount{
			Number:     s.alloc.AccountNumber("SB"),
			CustomerID: customerID,
			Balance:    initialDeposit.Round(2),
			Status:     initialStatus(caller, s.staffAutoActive),
		}
		if err := tx.Create(account).Error; err != nil {
			return NewStorageError("ошибка при создании счета", err)
		}

		// Первоначальный взнос фиксируется в журнале операций
		entry := &models.SavingsTransaction{
			AccountID:   account.ID,
			Type:        models.SavingsTransactionDeposit,
			Amount:      initialDeposit.Round(2),
			Description: "Первоначальный взнос",
		}
		if err := tx.Create(entry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// ApproveSavings одобряет заявку на открытие счета
func (s *AccountService) ApproveSavings(accountID uint) error {
	return s.decideSavings(accountID, true)
}

// RejectSavings отклоняет заявку на открытие счета
func (s *AccountService) RejectSavings(accountID uint) error {
	return s.decideSavings(accountID, false)
}

// decideSavings переводит счет из PENDING в ACTIVE или REJECTED.
// Условие по статусу входит в сам UPDATE: решение, принятое дважды
// конкурентно, применится только один раз.
func (s *AccountService) decideSavings(accountID uint, approve bool) error {
	newStatus := models.AccountStatusActive
	if !approve {
		newStatus = models.AccountStatusRejected
	}

	res := s.db.Model(&models.SavingsAccount{}).
		Where("id = ? AND status = ?", accountID, models.AccountStatusPending).
		Updates(map[string]interface{}{"status": newStatus, "updated_at": time.Now()})
	if res.Error != nil {
		return NewStorageError("ошибка при обновлении статуса счета", res.Error)
	}
	if res.RowsAffected == 0 {
		var account models.SavingsAccount
		if err := s.db.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("счет не найден")
			}
			return NewStorageError("ошибка при поиске счета", err)
		}
		return NewStateError("решение возможно только по заявке в статусе PENDING")
	}

	return nil
}

// CloseSavings закрывает активный счет. Закрытие невозможно, пока у
// клиента есть незакрытый кредит. Остаток выдается клиенту и
// фиксируется в журнале как снятие.
func (s *AccountService) CloseSavings(caller Caller, accountID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var account models.SavingsAccount
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("счет не найден")
			}
			return NewStorageError("ошибка при поиске счета", err)
		}
		if !caller.OwnsCustomer(account.CustomerID) {
			return NewNotFoundError("счет не найден")
		}
		if account.Status != models.AccountStatusActive {
			return NewStateError("закрыть можно только активный счет")
		}

		// Незакрытый кредит блокирует закрытие счета
		var openLoans int64
		if err := tx.Model(&models.LoanAccount{}).
			Where("customer_id = ? AND status IN ?", account.CustomerID,
				[]models.AccountStatus{models.AccountStatusPending, models.AccountStatusActive}).
			Count(&openLoans).Error; err != nil {
			return NewStorageError("ошибка при проверке кредитов", err)
		}
		if openLoans > 0 {
			return NewPreconditionError("счет нельзя закрыть, пока у клиента есть незакрытый кредит")
		}

		if account.Balance.GreaterThan(decimal.Zero) {
			entry := &models.SavingsTransaction{
				AccountID:   account.ID,
				Type:        models.SavingsTransactionWithdrawal,
				Amount:      account.Balance,
				Description: "Выдача остатка при закрытии счета",
			}
			if err := tx.Create(entry).Error; err != nil {
				return NewStorageError("ошибка при записи операции", err)
			}
		}

		res := tx.Model(&models.SavingsAccount{}).
			Where("id = ? AND status = ?", account.ID, models.AccountStatusActive).
			Updates(map[string]interface{}{
				"balance":    decimal.Zero,
				"status":     models.AccountStatusClosed,
				"updated_at": time.Now(),
			})
		if res.Error != nil {
			return NewStorageError("ошибка при закрытии счета", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewStateError("закрыть можно только активный счет")
		}

		return nil
	})
}

// GetSavingsByID возвращает счет по ID с проверкой владения
func (s *AccountService) GetSavingsByID(caller Caller, accountID uint) (*models.SavingsAccount, error) {
	var account models.SavingsAccount
	if err := s.db.Preload("Customer").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("счет не найден")
		}
		return nil, NewStorageError("ошибка при поиске счета", err)
	}
	if !caller.OwnsCustomer(account.CustomerID) {
		return nil, NewNotFoundError("счет не найден")
	}
	return &account, nil
}

// GetSavingsByCustomer возвращает все сберегательные счета клиента
func (s *AccountService) GetSavingsByCustomer(caller Caller, customerID uint) ([]models.SavingsAccount, error) {
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}
	var accounts []models.SavingsAccount
	if err := s.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, NewStorageError("ошибка при получении списка счетов", err)
	}
	return accounts, nil
}

// ListSavingsTransactions возвращает журнал операций счета,
// новые записи первыми
func (s *AccountService) ListSavingsTransactions(caller Caller, accountID uint) ([]models.SavingsTransaction, error) {
	if _, err := s.GetSavingsByID(caller, accountID); err != nil {
		return nil, err
	}
	var entries []models.SavingsTransaction
	if err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, NewStorageError("ошибка при получении журнала операций", err)
	}
	return entries, nil
}

// findActiveSavings находит активный сберегательный счет клиента.
// Общая точка для операций, которым нужен счет-источник или
// счет-получатель (финансирование вклада, выплаты, платежи по кредиту).
func findActiveSavings(tx *gorm.DB, customerID uint) (*models.SavingsAccount, error) {
	var account models.SavingsAccount
	err := tx.Where("customer_id = ? AND status = ?", customerID, models.AccountStatusActive).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewPreconditionError("у клиента нет активного сберегательного счета")
		}
		return nil, NewStorageError("ошибка при поиске счета", err)
	}
	return &account, nil
}
