package services

import (
	"fmt"
	"sort"
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PendingRequest — заявка в очереди на одобрение, единый вид для
// счетов, вкладов и кредитов
type PendingRequest struct {
	AccountID     uint            `json:"account_id"`
	AccountNumber string          `json:"account_number"`
	Type          string          `json:"type"`
	CustomerID    uint            `json:"customer_id"`
	CustomerName  string          `json:"customer_name"`
	Amount        decimal.Decimal `json:"amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ApprovalService обслуживает очередь заявок менеджера: список
// ожидающих решений и само решение по заявке любого типа.
// Уведомление клиенту отправляется после фиксации решения и не
// влияет на его результат.
type ApprovalService struct {
	db       *gorm.DB
	accounts *AccountService
	deposits *DepositService
	loans    *LoanService
	email    *EmailService
}

// NewApprovalService создает новый экземпляр ApprovalService
func NewApprovalService(db *gorm.DB, accounts *AccountService, deposits *DepositService, loans *LoanService, email *EmailService) *ApprovalService {
	return &ApprovalService{
		db:       db,
		accounts: accounts,
		deposits: deposits,
		loans:    loans,
		email:    email,
	}
}

// ListPending возвращает очередь заявок. Пустой фильтр — все типы,
// иначе только SAVINGS, FD или LOAN. Порядок устойчив: тип, имя
// клиента, ID заявки.
func (s *ApprovalService) ListPending(typeFilter string) ([]PendingRequest, error) {
	switch typeFilter {
	case "", AccountTypeSavings, AccountTypeFixedDeposit, AccountTypeLoan:
	default:
		return nil, NewValidationError("неизвестный тип заявки: " + typeFilter)
	}

	requests := make([]PendingRequest, 0)

	if typeFilter == "" || typeFilter == AccountTypeSavings {
		var accounts []models.SavingsAccount
		if err := s.db.Preload("Customer").
			Where("status = ?", models.AccountStatusPending).
			Find(&accounts).Error; err != nil {
			return nil, NewStorageError("ошибка при получении заявок на счета", err)
		}
		for _, a := range accounts {
			requests = append(requests, PendingRequest{
				AccountID:     a.ID,
				AccountNumber: a.Number,
				Type:          AccountTypeSavings,
				CustomerID:    a.CustomerID,
				CustomerName:  a.Customer.FullName(),
				Amount:        a.Balance,
				CreatedAt:     a.CreatedAt,
			})
		}
	}

	if typeFilter == "" || typeFilter == AccountTypeFixedDeposit {
		var accounts []models.FixedDepositAccount
		if err := s.db.Preload("Customer").
			Where("status = ?", models.AccountStatusPending).
			Find(&accounts).Error; err != nil {
			return nil, NewStorageError("ошибка при получении заявок на вклады", err)
		}
		for _, a := range accounts {
			requests = append(requests, PendingRequest{
				AccountID:     a.ID,
				AccountNumber: a.Number,
				Type:          AccountTypeFixedDeposit,
				CustomerID:    a.CustomerID,
				CustomerName:  a.Customer.FullName(),
				Amount:        a.DepositAmount,
				CreatedAt:     a.CreatedAt,
			})
		}
	}

	if typeFilter == "" || typeFilter == AccountTypeLoan {
		var accounts []models.LoanAccount
		if err := s.db.Preload("Customer").
			Where("status = ?", models.AccountStatusPending).
			Find(&accounts).Error; err != nil {
			return nil, NewStorageError("ошибка при получении заявок на кредиты", err)
		}
		for _, a := range accounts {
			requests = append(requests, PendingRequest{
				AccountID:     a.ID,
				AccountNumber: a.Number,
				Type:          AccountTypeLoan,
				CustomerID:    a.CustomerID,
				CustomerName:  a.Customer.FullName(),
				Amount:        a.LoanAmount,
				CreatedAt:     a.CreatedAt,
			})
		}
	}

	sort.Slice(requests, func(i, j int) bool {
		if requests[i].Type != requests[j].Type {
			return requests[i].Type < requests[j].Type
		}
		if requests[i].CustomerName != requests[j].CustomerName {
			return requests[i].CustomerName < requests[j].CustomerName
		}
		return requests[i].AccountID < requests[j].AccountID
	})

	return requests, nil
}

// Decide применяет решение менеджера по заявке. Возвращает текст для
// ответа. Решение фиксируется атомарно; уведомление отправляется
// после и в случае неудачи только логируется.
func (s *ApprovalService) Decide(accountType string, accountID uint, approve bool) (string, error) {
	var number string
	var customerID uint
	var err error

	switch accountType {
	case AccountTypeSavings:
		number, customerID, err = s.decideSavings(accountID, approve)
	case AccountTypeFixedDeposit:
		number, customerID, err = s.decideFixedDeposit(accountID, approve)
	case AccountTypeLoan:
		number, customerID, err = s.decideLoan(accountID, approve)
	default:
		return "", NewValidationError("неизвестный тип заявки: " + accountType)
	}
	if err != nil {
		return "", err
	}

	utils.GetMetrics().RecordDecision(approve)
	s.notify(customerID, number, accountType, approve)

	if approve {
		return fmt.Sprintf("Заявка %s одобрена", number), nil
	}
	return fmt.Sprintf("Заявка %s отклонена", number), nil
}

func (s *ApprovalService) decideSavings(accountID uint, approve bool) (string, uint, error) {
	var account models.SavingsAccount
	if err := s.db.First(&account, accountID).Error; err != nil {
		return "", 0, NewNotFoundError("заявка не найдена")
	}
	if approve {
		return account.Number, account.CustomerID, s.accounts.ApproveSavings(accountID)
	}
	return account.Number, account.CustomerID, s.accounts.RejectSavings(accountID)
}

func (s *ApprovalService) decideFixedDeposit(accountID uint, approve bool) (string, uint, error) {
	var account models.FixedDepositAccount
	if err := s.db.First(&account, accountID).Error; err != nil {
		return "", 0, NewNotFoundError("заявка не найдена")
	}
	if approve {
		return account.Number, account.CustomerID, s.deposits.ApproveFixedDeposit(accountID)
	}
	return account.Number, account.CustomerID, s.deposits.RejectFixedDeposit(accountID)
}

func (s *ApprovalService) decideLoan(accountID uint, approve bool) (string, uint, error) {
	var account models.LoanAccount
	if err := s.db.First(&account, accountID).Error; err != nil {
		return "", 0, NewNotFoundError("заявка не найдена")
	}
	if approve {
		return account.Number, account.CustomerID, s.loans.ApproveLoan(accountID)
	}
	return account.Number, account.CustomerID, s.loans.RejectLoan(accountID)
}

func (s *ApprovalService) notify(customerID uint, number, accountType string, approve bool) {
	if s.email == nil {
		return
	}
	var customer models.Customer
	if err := s.db.First(&customer, customerID).Error; err != nil {
		utils.LogError("не удалось найти клиента %d для уведомления: %v", customerID, err)
		return
	}
	if err := s.email.SendDecisionNotification(customer.Email, number, accountType, approve); err != nil {
		utils.LogError("не удалось отправить уведомление о решении по %s: %v", number, err)
	}
}
