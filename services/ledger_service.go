package services

import (
	"errors"
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerService выполняет денежные операции по сберегательным счетам.
// Каждая операция — одна транзакция БД: изменение баланса и записи
// журнала фиксируются вместе или не фиксируются вовсе.
//
// Списание всегда выполняется условным UPDATE с проверкой
// "balance >= сумма" в самом запросе: два конкурентных снятия не могут
// оба пройти, если их сумма превышает баланс. Ноль затронутых строк
// означает нехватку средств, а не успех.
type LedgerService struct {
	db *gorm.DB
}

// NewLedgerService создает новый экземпляр LedgerService
func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// loadOwnedActive загружает счет, проверяя владение и статус
func (s *LedgerService) loadOwnedActive(tx *gorm.DB, caller Caller, accountID uint) (*models.SavingsAccount, error) {
	var account models.SavingsAccount
	if err := tx.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("счет не найден")
		}
		return nil, NewStorageError("ошибка при поиске счета", err)
	}
	if !caller.OwnsCustomer(account.CustomerID) {
		return nil, NewNotFoundError("счет не найден")
	}
	if account.Status != models.AccountStatusActive {
		return nil, NewStateError("операции возможны только по активному счету")
	}
	return &account, nil
}

// creditSavings безусловно увеличивает баланс активного счета.
// Общая точка зачисления: переводы, выплаты по вкладам, выдача кредита.
func creditSavings(tx *gorm.DB, accountID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.SavingsAccount{}).
		Where("id = ? AND status = ?", accountID, models.AccountStatusActive).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return NewStorageError("ошибка при зачислении средств", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewStateError("зачисление возможно только на активный счет")
	}
	return nil
}

// debitSavings условно уменьшает баланс: UPDATE применяется, только
// если на момент записи balance >= amount. Общая точка списания:
// снятия, переводы, финансирование вкладов, платежи по кредиту.
func debitSavings(tx *gorm.DB, accountID uint, amount decimal.Decimal) error {
	res := tx.Model(&models.SavingsAccount{}).
		Where("id = ? AND status = ? AND balance >= ?", accountID, models.AccountStatusActive, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return NewStorageError("ошибка при списании средств", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewInsufficientFundsError("недостаточно средств на счете")
	}
	return nil
}

// Deposit пополняет счет. Минимальная сумма операции — 100.
func (s *LedgerService) Deposit(caller Caller, accountID uint, amount decimal.Decimal) (*models.SavingsAccount, error) {
	start := time.Now()
	account, err := s.deposit(caller, accountID, amount)
	utils.LogOperation("deposit", start, err)
	return account, err
}

func (s *LedgerService) deposit(caller Caller, accountID uint, amount decimal.Decimal) (*models.SavingsAccount, error) {
	if amount.LessThan(MinOperationAmount) {
		return nil, NewValidationError("сумма пополнения не может быть меньше 100")
	}
	amount = amount.Round(2)

	var account *models.SavingsAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.loadOwnedActive(tx, caller, accountID)
		if err != nil {
			return err
		}

		if err := creditSavings(tx, account.ID, amount); err != nil {
			return err
		}

		entry := &models.SavingsTransaction{
			AccountID:   account.ID,
			Type:        models.SavingsTransactionDeposit,
			Amount:      amount,
			Description: "Пополнение счета",
		}
		if err := tx.Create(entry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		account.Balance = account.Balance.Add(amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Withdraw снимает средства со счета. Минимальная сумма операции — 100;
// снятие сверх баланса не проходит и оставляет баланс без изменений.
func (s *LedgerService) Withdraw(caller Caller, accountID uint, amount decimal.Decimal) (*models.SavingsAccount, error) {
	start := time.Now()
	account, err := s.withdraw(caller, accountID, amount)
	utils.LogOperation("withdraw", start, err)
	return account, err
}

func (s *LedgerService) withdraw(caller Caller, accountID uint, amount decimal.Decimal) (*models.SavingsAccount, error) {
	if amount.LessThan(MinOperationAmount) {
		return nil, NewValidationError("сумма снятия не может быть меньше 100")
	}
	amount = amount.Round(2)

	var account *models.SavingsAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = s.loadOwnedActive(tx, caller, accountID)
		if err != nil {
			return err
		}

		if err := debitSavings(tx, account.ID, amount); err != nil {
			return err
		}

		entry := &models.SavingsTransaction{
			AccountID:   account.ID,
			Type:        models.SavingsTransactionWithdrawal,
			Amount:      amount,
			Description: "Снятие средств",
		}
		if err := tx.Create(entry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		account.Balance = account.Balance.Sub(amount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// Transfer переводит средства между счетами. Источник должен
// принадлежать вызывающему и быть активным, получатель — существовать
// и быть активным. Списание, зачисление и обе записи журнала
// фиксируются одной транзакцией; обе записи получают общий момент
// времени для сверки.
func (s *LedgerService) Transfer(caller Caller, fromID, toID uint, amount decimal.Decimal) error {
	start := time.Now()
	err := s.transfer(caller, fromID, toID, amount)
	utils.LogOperation("transfer", start, err)
	return err
}

func (s *LedgerService) transfer(caller Caller, fromID, toID uint, amount decimal.Decimal) error {
	if amount.LessThanOrEqual(MinOperationAmount) {
		return NewValidationError("сумма перевода должна быть больше 100")
	}
	if fromID == toID {
		return NewValidationError("нельзя перевести средства на тот же счет")
	}
	amount = amount.Round(2)

	return s.db.Transaction(func(tx *gorm.DB) error {
		source, err := s.loadOwnedActive(tx, caller, fromID)
		if err != nil {
			return err
		}

		var destination models.SavingsAccount
		if err := tx.First(&destination, toID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("счет получателя не найден")
			}
			return NewStorageError("ошибка при поиске счета получателя", err)
		}
		if destination.Status != models.AccountStatusActive {
			return NewStateError("счет получателя не активен")
		}

		// Сначала условное списание: если оно не прошло,
		// зачисления не будет
		if err := debitSavings(tx, source.ID, amount); err != nil {
			return err
		}
		if err := creditSavings(tx, destination.ID, amount); err != nil {
			return err
		}

		now := time.Now()
		outEntry := &models.SavingsTransaction{
			AccountID:   source.ID,
			Type:        models.SavingsTransactionWithdrawal,
			Amount:      amount,
			Description: "Перевод на счет " + destination.Number,
			CreatedAt:   now,
		}
		inEntry := &models.SavingsTransaction{
			AccountID:   destination.ID,
			Type:        models.SavingsTransactionDeposit,
			Amount:      amount,
			Description: "Перевод со счета " + source.Number,
			CreatedAt:   now,
		}
		if err := tx.Create(outEntry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}
		if err := tx.Create(inEntry).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		return nil
	})
}
