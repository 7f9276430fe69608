package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"bankoffice/config"
	"bankoffice/database"
	"bankoffice/services"
	"bankoffice/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// CustomerController обрабатывает запросы самообслуживания клиента:
// счета, вклады, кредиты, выписки и настройки профиля
type CustomerController struct {
	accounts   *services.AccountService
	deposits   *services.DepositService
	loans      *services.LoanService
	ledger     *services.LedgerService
	statements *services.StatementService
	customers  *services.CustomerService
	validator  *validator.Validate
}

// NewCustomerController создает новый экземпляр CustomerController
func NewCustomerController(db *database.Database, cfg *config.Config) *CustomerController {
	alloc := utils.NewUUIDAllocator()
	accounts := services.NewAccountService(db.DB, alloc, cfg.Policy.StaffAutoActive)

	return &CustomerController{
		accounts:   accounts,
		deposits:   services.NewDepositService(db.DB, alloc, cfg.Policy.StaffAutoActive),
		loans:      services.NewLoanService(db.DB, alloc, cfg.Policy.StaffAutoActive, cfg.Policy.LatePenaltyRate),
		ledger:     services.NewLedgerService(db.DB),
		statements: services.NewStatementService(accounts, cfg.StatementKey),
		customers:  services.NewCustomerService(db.DB),
		validator:  validator.New(),
	}
}

// validateRequest валидирует DTO и возвращает ошибки валидации
func (c *CustomerController) validateRequest(dto interface{}) error {
	if err := c.validator.Struct(dto); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		var errorMessages []string
		for _, e := range validationErrors {
			switch e.Tag() {
			case "required":
				errorMessages = append(errorMessages, "поле "+e.Field()+" обязательно")
			case "gt":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть больше 0")
			case "oneof":
				errorMessages = append(errorMessages, "поле "+e.Field()+" должно быть одним из: "+e.Param())
			default:
				errorMessages = append(errorMessages, "поле "+e.Field()+" заполнено неверно")
			}
		}
		return errors.New(strings.Join(errorMessages, "; "))
	}
	return nil
}

type OpenSavingsRequest struct {
	InitialDeposit decimal.Decimal `json:"initialDeposit" validate:"required"`
}

type AmountRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type TransferRequest struct {
	ToAccountID uint            `json:"toAccountId" validate:"required,gt=0"`
	Amount      decimal.Decimal `json:"amount" validate:"required"`
}

type OpenDepositRequest struct {
	Amount          decimal.Decimal `json:"amount" validate:"required"`
	TenureMonths    int             `json:"tenureMonths" validate:"required,gt=0"`
	FundFromSavings bool            `json:"fundFromSavings"`
}

type OpenLoanRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	TenureMonths  int             `json:"tenureMonths" validate:"required,gt=0"`
	MonthlyIncome decimal.Decimal `json:"monthlyIncome" validate:"required"`
}

type UpdateSettingsRequest struct {
	Phone   string `json:"phone" validate:"omitempty,min=5,max=15"`
	Address string `json:"address" validate:"omitempty,max=255"`
}

// OpenSavings обрабатывает заявку клиента на открытие счета
func (c *CustomerController) OpenSavings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto OpenSavingsRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := c.accounts.OpenSavings(caller, caller.UserID, dto.InitialDeposit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetAccounts возвращает сберегательные счета клиента
func (c *CustomerController) GetAccounts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := c.accounts.GetSavingsByCustomer(caller, caller.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// Deposit обрабатывает пополнение счета
func (c *CustomerController) Deposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var dto AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := c.ledger.Deposit(caller, accountID, dto.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Withdraw обрабатывает снятие средств со счета
func (c *CustomerController) Withdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var dto AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := c.ledger.Withdraw(caller, accountID, dto.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// Transfer обрабатывает перевод между счетами
func (c *CustomerController) Transfer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var dto TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := c.ledger.Transfer(caller, accountID, dto.ToAccountID, dto.Amount); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Перевод выполнен"})
}

// GetTransactions возвращает журнал операций счета
func (c *CustomerController) GetTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	entries, err := c.accounts.ListSavingsTransactions(caller, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// ExportStatement возвращает подписанную XML-выписку по счету
func (c *CustomerController) ExportStatement(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	statement, err := c.statements.Export(caller, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(statement)
}

// CloseAccount закрывает сберегательный счет
func (c *CustomerController) CloseAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	if err := c.accounts.CloseSavings(caller, accountID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Счет закрыт"})
}

// OpenDeposit обрабатывает заявку клиента на вклад
func (c *CustomerController) OpenDeposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto OpenDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := c.deposits.OpenFixedDeposit(caller, caller.UserID, dto.Amount, dto.TenureMonths, dto.FundFromSavings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetDeposits возвращает вклады клиента
func (c *CustomerController) GetDeposits(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := c.deposits.GetFixedDepositsByCustomer(caller, caller.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// CloseDeposit закрывает вклад с выплатой на сберегательный счет
func (c *CustomerController) CloseDeposit(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	account, payout, err := c.deposits.CloseFixedDeposit(caller, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account": account,
		"payout":  payout,
	})
}

// GetDepositTransactions возвращает журнал операций вклада
func (c *CustomerController) GetDepositTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	entries, err := c.deposits.ListFDTransactions(caller, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// OpenLoan обрабатывает заявку клиента на кредит
func (c *CustomerController) OpenLoan(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto OpenLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	account, err := c.loans.OpenLoan(caller, caller.UserID, dto.Amount, dto.TenureMonths, dto.MonthlyIncome)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetLoans возвращает кредиты клиента
func (c *CustomerController) GetLoans(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	accounts, err := c.loans.GetLoansByCustomer(caller, caller.UserID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetOutstanding возвращает текущий остаток долга по кредиту
func (c *CustomerController) GetOutstanding(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	outstanding, err := c.loans.Outstanding(caller, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"outstanding": outstanding})
}

// PayLoan проводит платеж по кредиту
func (c *CustomerController) PayLoan(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var dto AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entry, err := c.loans.RecordLoanPayment(caller, accountID, dto.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// ForecloseLoan досрочно погашает кредит
func (c *CustomerController) ForecloseLoan(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	entry, err := c.loans.ForecloseLoan(caller, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// GetLoanTransactions возвращает журнал платежей по кредиту
func (c *CustomerController) GetLoanTransactions(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	entries, err := c.loans.ListLoanTransactions(caller, accountID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetProfile возвращает профиль клиента
func (c *CustomerController) GetProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	customer, err := c.customers.GetByID(caller, caller.UserID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Пароль и полный ПАН наружу не отдаются
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":        customer.ID,
		"firstName": customer.FirstName,
		"lastName":  customer.LastName,
		"email":     customer.Email,
		"pan":       utils.MaskPAN(customer.PAN),
		"phone":     customer.Phone,
		"address":   customer.Address,
	})
}

// UpdateSettings изменяет контактные данные клиента
func (c *CustomerController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validateRequest(dto); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	customer, err := c.customers.UpdateSettings(caller, caller.UserID, dto.Phone, dto.Address)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

// RegisterRoutes регистрирует маршруты контроллера
func (c *CustomerController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/customer/accounts", c.OpenSavings).Methods("POST")
	router.HandleFunc("/customer/accounts", c.GetAccounts).Methods("GET")
	router.HandleFunc("/customer/accounts/{id}/deposit", c.Deposit).Methods("POST")
	router.HandleFunc("/customer/accounts/{id}/withdraw", c.Withdraw).Methods("POST")
	router.HandleFunc("/customer/accounts/{id}/transfer", c.Transfer).Methods("POST")
	router.HandleFunc("/customer/accounts/{id}/transactions", c.GetTransactions).Methods("GET")
	router.HandleFunc("/customer/accounts/{id}/statement", c.ExportStatement).Methods("GET")
	router.HandleFunc("/customer/accounts/{id}", c.CloseAccount).Methods("DELETE")

	router.HandleFunc("/customer/deposits", c.OpenDeposit).Methods("POST")
	router.HandleFunc("/customer/deposits", c.GetDeposits).Methods("GET")
	router.HandleFunc("/customer/deposits/{id}/close", c.CloseDeposit).Methods("POST")
	router.HandleFunc("/customer/deposits/{id}/transactions", c.GetDepositTransactions).Methods("GET")

	router.HandleFunc("/customer/loans", c.OpenLoan).Methods("POST")
	router.HandleFunc("/customer/loans", c.GetLoans).Methods("GET")
	router.HandleFunc("/customer/loans/{id}/outstanding", c.GetOutstanding).Methods("GET")
	router.HandleFunc("/customer/loans/{id}/pay", c.PayLoan).Methods("POST")
	router.HandleFunc("/customer/loans/{id}/foreclose", c.ForecloseLoan).Methods("POST")
	router.HandleFunc("/customer/loans/{id}/transactions", c.GetLoanTransactions).Methods("GET")

	router.HandleFunc("/customer/profile", c.GetProfile).Methods("GET")
	router.HandleFunc("/customer/settings", c.UpdateSettings).Methods("PUT")
}
