package services

import (
	"errors"
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LoanService управляет кредитами: выдача с проверкой
// платежеспособности, одобрение/отклонение заявки, платежи по графику
// и досрочное погашение. Остаток долга не хранится в счете, а
// выводится из последней записи журнала платежей.
type LoanService struct {
	db              *gorm.DB
	alloc           utils.IDAllocator
	staffAutoActive bool
	latePenaltyRate decimal.Decimal
}

// NewLoanService создает новый экземпляр LoanService
func NewLoanService(db *gorm.DB, alloc utils.IDAllocator, staffAutoActive bool, latePenaltyRate float64) *LoanService {
	return &LoanService{
		db:              db,
		alloc:           alloc,
		staffAutoActive: staffAutoActive,
		latePenaltyRate: decimal.NewFromFloat(latePenaltyRate),
	}
}

// OpenLoan оформляет кредит. Минимальная сумма — 10000, у клиента
// должен быть активный сберегательный счет, платеж не может превышать
// 60% месячного дохода. Для клиентов старше 60 лет действует
// фиксированная ставка с потолком суммы. При создании в статусе
// ACTIVE сумма кредита сразу зачисляется на сберегательный счет.
func (s *LoanService) OpenLoan(caller Caller, customerID uint, amount decimal.Decimal, tenureMonths int, monthlyIncome decimal.Decimal) (*models.LoanAccount, error) {
	if !roleCanOpen(caller.Role, AccountTypeLoan) {
		return nil, NewNotFoundError("операция недоступна для данной роли")
	}
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}
	if amount.LessThan(MinLoanAmount) {
		return nil, NewValidationError("сумма кредита не может быть меньше 10000")
	}
	if tenureMonths <= 0 {
		return nil, NewValidationError("срок кредита должен быть больше нуля")
	}
	if monthlyIncome.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("месячный доход должен быть больше нуля")
	}
	amount = amount.Round(2)

	var account *models.LoanAccount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var customer models.Customer
		if err := tx.First(&customer, customerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("клиент не найден")
			}
			return NewStorageError("ошибка при поиске клиента", err)
		}

		// Кредит выдается только при наличии активного счета:
		// на него зачисляются средства и с него списываются платежи
		target, err := findActiveSavings(tx, customerID)
		if err != nil {
			return err
		}

		now := time.Now()
		rate, err := LoanRate(amount, IsSenior(Age(customer.DateOfBirth, now)))
		if err != nil {
			return err
		}

		emi := EMI(amount, rate, tenureMonths)
		if !Affordable(emi, monthlyIncome) {
			return NewPolicyViolationError("платеж по кредиту превышает 60% месячного дохода")
		}

		account = &models.LoanAccount{
			Number:       s.alloc.AccountNumber("LN"),
			CustomerID:   customerID,
			LoanAmount:   amount,
			LNROI:        decimal.NewFromFloat(rate),
			TenureMonths: tenureMonths,
			EMIAmount:    emi,
			StartDate:    now,
			Status:       initialStatus(caller, s.staffAutoActive),
		}
		if err := tx.Create(account).Error; err != nil {
			return NewStorageError("ошибка при создании кредита", err)
		}

		if account.Status == models.AccountStatusActive {
			if err := s.disburse(tx, account, target.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// disburse зачисляет сумму кредита на сберегательный счет клиента
func (s *LoanService) disburse(tx *gorm.DB, account *models.LoanAccount, savingsID uint) error {
	if err := creditSavings(tx, savingsID, account.LoanAmount); err != nil {
		return err
	}
	entry := &models.SavingsTransaction{
		AccountID:   savingsID,
		Type:        models.SavingsTransactionDeposit,
		Amount:      account.LoanAmount,
		Description: "Выдача кредита " + account.Number,
	}
	if err := tx.Create(entry).Error; err != nil {
		return NewStorageError("ошибка при записи операции", err)
	}
	return nil
}

// ApproveLoan одобряет заявку на кредит и выдает средства на
// сберегательный счет клиента в той же транзакции
func (s *LoanService) ApproveLoan(accountID uint) error {
	return s.decideLoan(accountID, true)
}

// RejectLoan отклоняет заявку на кредит
func (s *LoanService) RejectLoan(accountID uint) error {
	return s.decideLoan(accountID, false)
}

func (s *LoanService) decideLoan(accountID uint, approve bool) error {
	newStatus := models.AccountStatusActive
	if !approve {
		newStatus = models.AccountStatusRejected
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var account models.LoanAccount
		if err := tx.First(&account, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("кредит не найден")
			}
			return NewStorageError("ошибка при поиске кредита", err)
		}

		res := tx.Model(&models.LoanAccount{}).
			Where("id = ? AND status = ?", accountID, models.AccountStatusPending).
			Updates(map[string]interface{}{"status": newStatus, "updated_at": time.Now()})
		if res.Error != nil {
			return NewStorageError("ошибка при обновлении статуса кредита", res.Error)
		}
		if res.RowsAffected == 0 {
			return NewStateError("решение возможно только по заявке в статусе PENDING")
		}

		if approve {
			target, err := findActiveSavings(tx, account.CustomerID)
			if err != nil {
				return err
			}
			if err := s.disburse(tx, &account, target.ID); err != nil {
				return err
			}
		}

		return nil
	})
}

// latestOutstanding возвращает текущий остаток долга: остаток из
// последней записи журнала платежей или полную сумму кредита, если
// платежей еще не было
func latestOutstanding(tx *gorm.DB, account *models.LoanAccount) (decimal.Decimal, int64, error) {
	var count int64
	if err := tx.Model(&models.LoanTransaction{}).
		Where("account_id = ?", account.ID).
		Count(&count).Error; err != nil {
		return decimal.Zero, 0, NewStorageError("ошибка при чтении журнала платежей", err)
	}
	if count == 0 {
		return account.LoanAmount, 0, nil
	}

	var last models.LoanTransaction
	if err := tx.Where("account_id = ?", account.ID).
		Order("created_at DESC, id DESC").
		First(&last).Error; err != nil {
		return decimal.Zero, 0, NewStorageError("ошибка при чтении журнала платежей", err)
	}
	return last.Outstanding, count, nil
}

// RecordLoanPayment проводит очередной платеж по кредиту. Сумма
// списывается с активного сберегательного счета клиента условным
// UPDATE; при просрочке к платежу добавляется штраф. Когда остаток
// достигает нуля, кредит закрывается автоматически.
func (s *LoanService) RecordLoanPayment(caller Caller, accountID uint, amount decimal.Decimal) (*models.LoanTransaction, error) {
	start := time.Now()
	entry, err := s.recordPayment(caller, accountID, amount)
	utils.LogOperation("loan_payment", start, err)
	return entry, err
}

func (s *LoanService) recordPayment(caller Caller, accountID uint, amount decimal.Decimal) (*models.LoanTransaction, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, NewValidationError("сумма платежа должна быть больше нуля")
	}
	amount = amount.Round(2)

	var entry *models.LoanTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.loadOwnedActiveLoan(tx, caller, accountID)
		if err != nil {
			return err
		}

		outstanding, paidCount, err := latestOutstanding(tx, account)
		if err != nil {
			return err
		}
		if outstanding.LessThanOrEqual(decimal.Zero) {
			return NewValidationError("кредит уже погашен")
		}

		source, err := findActiveSavings(tx, account.CustomerID)
		if err != nil {
			return err
		}

		now := time.Now()
		dueDate := account.StartDate.AddDate(0, int(paidCount)+1, 0)
		penalty := decimal.Zero
		if now.After(dueDate) {
			penalty = account.EMIAmount.Mul(s.latePenaltyRate).Round(2)
		}

		total := amount.Add(penalty)
		if err := debitSavings(tx, source.ID, total); err != nil {
			return err
		}
		journal := &models.SavingsTransaction{
			AccountID:   source.ID,
			Type:        models.SavingsTransactionWithdrawal,
			Amount:      total,
			Description: "Платеж по кредиту " + account.Number,
		}
		if err := tx.Create(journal).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		newOutstanding := outstanding.Sub(amount).Round(2)
		if newOutstanding.LessThan(decimal.Zero) {
			newOutstanding = decimal.Zero
		}

		entry = &models.LoanTransaction{
			AccountID:   account.ID,
			DueDate:     dueDate,
			PaidDate:    &now,
			Penalty:     penalty,
			Amount:      amount,
			Outstanding: newOutstanding,
		}
		if err := tx.Create(entry).Error; err != nil {
			return NewStorageError("ошибка при записи платежа", err)
		}

		// Полное погашение закрывает кредит
		if newOutstanding.IsZero() {
			if err := s.closeLoan(tx, account.ID); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// ForecloseLoan досрочно погашает кредит: весь остаток списывается
// со сберегательного счета одним платежом, кредит закрывается
func (s *LoanService) ForecloseLoan(caller Caller, accountID uint) (*models.LoanTransaction, error) {
	start := time.Now()
	entry, err := s.foreclose(caller, accountID)
	utils.LogOperation("loan_foreclosure", start, err)
	return entry, err
}

func (s *LoanService) foreclose(caller Caller, accountID uint) (*models.LoanTransaction, error) {
	var entry *models.LoanTransaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := s.loadOwnedActiveLoan(tx, caller, accountID)
		if err != nil {
			return err
		}

		outstanding, paidCount, err := latestOutstanding(tx, account)
		if err != nil {
			return err
		}
		if outstanding.LessThanOrEqual(decimal.Zero) {
			return NewValidationError("кредит уже погашен")
		}

		source, err := findActiveSavings(tx, account.CustomerID)
		if err != nil {
			return err
		}

		if err := debitSavings(tx, source.ID, outstanding); err != nil {
			return err
		}
		journal := &models.SavingsTransaction{
			AccountID:   source.ID,
			Type:        models.SavingsTransactionWithdrawal,
			Amount:      outstanding,
			Description: "Досрочное погашение кредита " + account.Number,
		}
		if err := tx.Create(journal).Error; err != nil {
			return NewStorageError("ошибка при записи операции", err)
		}

		now := time.Now()
		entry = &models.LoanTransaction{
			AccountID:   account.ID,
			DueDate:     account.StartDate.AddDate(0, int(paidCount)+1, 0),
			PaidDate:    &now,
			Penalty:     decimal.Zero,
			Amount:      outstanding,
			Outstanding: decimal.Zero,
		}
		if err := tx.Create(entry).Error; err != nil {
			return NewStorageError("ошибка при записи платежа", err)
		}

		return s.closeLoan(tx, account.ID)
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// closeLoan переводит кредит из ACTIVE в CLOSED
func (s *LoanService) closeLoan(tx *gorm.DB, accountID uint) error {
	res := tx.Model(&models.LoanAccount{}).
		Where("id = ? AND status = ?", accountID, models.AccountStatusActive).
		Updates(map[string]interface{}{"status": models.AccountStatusClosed, "updated_at": time.Now()})
	if res.Error != nil {
		return NewStorageError("ошибка при закрытии кредита", res.Error)
	}
	if res.RowsAffected == 0 {
		return NewStateError("закрыть можно только активный кредит")
	}
	return nil
}

// loadOwnedActiveLoan загружает кредит, проверяя владение и статус
func (s *LoanService) loadOwnedActiveLoan(tx *gorm.DB, caller Caller, accountID uint) (*models.LoanAccount, error) {
	var account models.LoanAccount
	if err := tx.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("кредит не найден")
		}
		return nil, NewStorageError("ошибка при поиске кредита", err)
	}
	if !caller.OwnsCustomer(account.CustomerID) {
		return nil, NewNotFoundError("кредит не найден")
	}
	if account.Status != models.AccountStatusActive {
		return nil, NewStateError("операции возможны только по активному кредиту")
	}
	return &account, nil
}

// Outstanding возвращает текущий остаток долга по кредиту
func (s *LoanService) Outstanding(caller Caller, accountID uint) (decimal.Decimal, error) {
	var account models.LoanAccount
	if err := s.db.First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return decimal.Zero, NewNotFoundError("кредит не найден")
		}
		return decimal.Zero, NewStorageError("ошибка при поиске кредита", err)
	}
	if !caller.OwnsCustomer(account.CustomerID) {
		return decimal.Zero, NewNotFoundError("кредит не найден")
	}
	outstanding, _, err := latestOutstanding(s.db, &account)
	return outstanding, err
}

// GetLoanByID возвращает кредит по ID с проверкой владения
func (s *LoanService) GetLoanByID(caller Caller, accountID uint) (*models.LoanAccount, error) {
	var account models.LoanAccount
	if err := s.db.Preload("Customer").First(&account, accountID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("кредит не найден")
		}
		return nil, NewStorageError("ошибка при поиске кредита", err)
	}
	if !caller.OwnsCustomer(account.CustomerID) {
		return nil, NewNotFoundError("кредит не найден")
	}
	return &account, nil
}

// GetLoansByCustomer возвращает все кредиты клиента
func (s *LoanService) GetLoansByCustomer(caller Caller, customerID uint) ([]models.LoanAccount, error) {
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}
	var accounts []models.LoanAccount
	if err := s.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&accounts).Error; err != nil {
		return nil, NewStorageError("ошибка при получении списка кредитов", err)
	}
	return accounts, nil
}

// ListLoanTransactions возвращает журнал платежей, новые записи первыми
func (s *LoanService) ListLoanTransactions(caller Caller, accountID uint) ([]models.LoanTransaction, error) {
	if _, err := s.GetLoanByID(caller, accountID); err != nil {
		return nil, err
	}
	var entries []models.LoanTransaction
	if err := s.db.Where("account_id = ?", accountID).
		Order("created_at DESC, id DESC").
		Find(&entries).Error; err != nil {
		return nil, NewStorageError("ошибка при получении журнала платежей", err)
	}
	return entries, nil
}

// DueActive возвращает активные кредиты, у которых очередной платеж
// наступил не позднее asOf. Используется планировщиком автосписания.
func (s *LoanService) DueActive(asOf time.Time) ([]models.LoanAccount, error) {
	var accounts []models.LoanAccount
	if err := s.db.Where("status = ?", models.AccountStatusActive).
		Find(&accounts).Error; err != nil {
		return nil, NewStorageError("ошибка при поиске кредитов", err)
	}

	due := make([]models.LoanAccount, 0, len(accounts))
	for i := range accounts {
		_, paidCount, err := latestOutstanding(s.db, &accounts[i])
		if err != nil {
			return nil, err
		}
		nextDue := accounts[i].StartDate.AddDate(0, int(paidCount)+1, 0)
		if !nextDue.After(asOf) {
			due = append(due, accounts[i])
		}
	}
	return due, nil
}
