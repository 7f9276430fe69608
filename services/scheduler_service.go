package services

import (
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SchedulerService выполняет регламентные задачи: автоматическую
// выплату истекших вкладов и автосписание очередных платежей по
// кредитам. Все операции проходят через те же сервисы, что и ручные,
// от имени системного вызывающего.
type SchedulerService struct {
	db       *gorm.DB
	deposits *DepositService
	loans    *LoanService
	email    *EmailService
}

// NewSchedulerService создает новый экземпляр SchedulerService
func NewSchedulerService(db *gorm.DB, deposits *DepositService, loans *LoanService, email *EmailService) *SchedulerService {
	return &SchedulerService{
		db:       db,
		deposits: deposits,
		loans:    loans,
		email:    email,
	}
}

// Start запускает планировщик регламентных задач
func (s *SchedulerService) Start() {
	// Выплата истекших вкладов каждые 8 часов
	depositTicker := time.NewTicker(8 * time.Hour)
	go func() {
		for range depositTicker.C {
			if err := s.ProcessMaturedDeposits(); err != nil {
				utils.LogError("ошибка при выплате истекших вкладов: %v", err)
			}
		}
	}()

	// Списание очередных платежей по кредитам каждый час
	loanTicker := time.NewTicker(1 * time.Hour)
	go func() {
		for range loanTicker.C {
			if err := s.ProcessDuePayments(); err != nil {
				utils.LogError("ошибка при списании платежей по кредитам: %v", err)
			}
		}
	}()
}

// ProcessMaturedDeposits выплачивает все активные вклады, срок которых
// истек. Отказ по одному вкладу не останавливает обработку остальных.
func (s *SchedulerService) ProcessMaturedDeposits() error {
	accounts, err := s.deposits.MaturedActive(time.Now())
	if err != nil {
		return err
	}

	system := Caller{Role: RoleSystem}
	for _, account := range accounts {
		closed, payout, err := s.deposits.CloseFixedDeposit(system, account.ID)
		if err != nil {
			// Без активного счета выплатить некуда: вклад остается
			// активным до следующего прохода
			utils.LogError("не удалось выплатить вклад %s: %v", account.Number, err)
			continue
		}
		utils.LogInfo("вклад %s выплачен, сумма %s", closed.Number, payout.StringFixed(2))
		s.notifyClosure(closed, payout)
	}

	return nil
}

// ProcessDuePayments списывает очередные платежи по активным кредитам,
// срок которых наступил. При нехватке средств платеж откладывается до
// следующего прохода, клиент получает уведомление о просрочке.
func (s *SchedulerService) ProcessDuePayments() error {
	accounts, err := s.loans.DueActive(time.Now())
	if err != nil {
		return err
	}

	system := Caller{Role: RoleSystem}
	for _, account := range accounts {
		entry, err := s.loans.RecordLoanPayment(system, account.ID, account.EMIAmount)
		if err != nil {
			if IsKind(err, ErrKindInsufficientFunds) {
				utils.LogInfo("недостаточно средств для платежа по кредиту %s", account.Number)
				s.notifyOverdue(&account)
				continue
			}
			utils.LogError("не удалось провести платеж по кредиту %s: %v", account.Number, err)
			continue
		}
		utils.LogInfo("платеж по кредиту %s проведен, остаток %s",
			account.Number, entry.Outstanding.StringFixed(2))
		if entry.Outstanding.IsZero() {
			s.notifyLoanPaid(&account)
		}
	}

	return nil
}

func (s *SchedulerService) notifyClosure(account *models.FixedDepositAccount, payout decimal.Decimal) {
	if s.email == nil {
		return
	}
	customer, err := findCustomer(s.db, account.CustomerID)
	if err != nil {
		utils.LogError("не удалось найти клиента %d для уведомления: %v", account.CustomerID, err)
		return
	}
	if err := s.email.SendDepositClosureNotification(customer.Email, account.Number, payout); err != nil {
		utils.LogError("не удалось отправить уведомление по вкладу %s: %v", account.Number, err)
	}
}

func (s *SchedulerService) notifyOverdue(account *models.LoanAccount) {
	if s.email == nil {
		return
	}
	customer, err := findCustomer(s.db, account.CustomerID)
	if err != nil {
		utils.LogError("не удалось найти клиента %d для уведомления: %v", account.CustomerID, err)
		return
	}
	penalty := account.EMIAmount.Mul(s.loans.latePenaltyRate).Round(2)
	if err := s.email.SendOverdueNotification(customer.Email, account.Number, account.EMIAmount, penalty); err != nil {
		utils.LogError("не удалось отправить уведомление о просрочке по %s: %v", account.Number, err)
	}
}

func (s *SchedulerService) notifyLoanPaid(account *models.LoanAccount) {
	if s.email == nil {
		return
	}
	customer, err := findCustomer(s.db, account.CustomerID)
	if err != nil {
		utils.LogError("не удалось найти клиента %d для уведомления: %v", account.CustomerID, err)
		return
	}
	if err := s.email.SendLoanPaidNotification(customer.Email, account.Number); err != nil {
		utils.LogError("не удалось отправить уведомление о погашении %s: %v", account.Number, err)
	}
}
