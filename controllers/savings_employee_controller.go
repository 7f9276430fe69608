package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"bankoffice/config"
	"bankoffice/database"
	"bankoffice/services"
	"bankoffice/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// SavingsEmployeeController обрабатывает операции операциониста отдела
// вкладов: регистрация клиентов, открытие и закрытие счетов и вкладов,
// кассовые операции от имени клиента
type SavingsEmployeeController struct {
	accounts  *services.AccountService
	deposits  *services.DepositService
	ledger    *services.LedgerService
	customers *services.CustomerService
	validator *validator.Validate
}

// NewSavingsEmployeeController создает новый экземпляр SavingsEmployeeController
func NewSavingsEmployeeController(db *database.Database, cfg *config.Config) *SavingsEmployeeController {
	alloc := utils.NewUUIDAllocator()
	return &SavingsEmployeeController{
		accounts:  services.NewAccountService(db.DB, alloc, cfg.Policy.StaffAutoActive),
		deposits:  services.NewDepositService(db.DB, alloc, cfg.Policy.StaffAutoActive),
		ledger:    services.NewLedgerService(db.DB),
		customers: services.NewCustomerService(db.DB),
		validator: validator.New(),
	}
}

type RegisterCustomerRequest struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=50"`
	LastName    string `json:"lastName" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	PAN         string `json:"pan" validate:"required,len=10"`
	Phone       string `json:"phone" validate:"omitempty,min=5,max=15"`
	Address     string `json:"address" validate:"omitempty,max=255"`
	Gender      string `json:"gender" validate:"omitempty,oneof=M F"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"` // формат 2006-01-02
	Password    string `json:"password" validate:"required,min=8"`
}

// RegisterCustomer регистрирует клиента в отделении
func (c *SavingsEmployeeController) RegisterCustomer(w http.ResponseWriter, r *http.Request) {
	var dto RegisterCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(dto); err != nil {
		http.Error(w, err.(validator.ValidationErrors).Error(), http.StatusBadRequest)
		return
	}

	dob, err := time.Parse("2006-01-02", dto.DateOfBirth)
	if err != nil {
		http.Error(w, "Invalid dateOfBirth, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	customer, err := c.customers.Register(services.RegisterInput{
		FirstName:   dto.FirstName,
		LastName:    dto.LastName,
		Email:       dto.Email,
		PAN:         dto.PAN,
		Phone:       dto.Phone,
		Address:     dto.Address,
		Gender:      dto.Gender,
		DateOfBirth: dob,
		Password:    dto.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":        customer.ID,
		"firstName": customer.FirstName,
		"lastName":  customer.LastName,
		"email":     customer.Email,
		"pan":       utils.MaskPAN(customer.PAN),
	})
}

// OpenSavingsForCustomer открывает счет клиенту. Счет, открытый
// сотрудником, активируется без очереди на одобрение.
func (c *SavingsEmployeeController) OpenSavingsForCustomer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	customerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	var dto OpenSavingsRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(dto); err != nil {
		http.Error(w, err.(validator.ValidationErrors).Error(), http.StatusBadRequest)
		return
	}

	account, err := c.accounts.OpenSavings(caller, customerID, dto.InitialDeposit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// OpenDepositForCustomer открывает вклад клиенту
func (c *SavingsEmployeeController) OpenDepositForCustomer(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	customerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	var dto OpenDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(dto); err != nil {
		http.Error(w, err.(validator.ValidationErrors).Error(), http.StatusBadRequest)
		return
	}

	account, err := c.deposits.OpenFixedDeposit(caller, customerID, dto.Amount, dto.TenureMonths, dto.FundFromSavings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetCustomerAccounts возвращает счета клиента
func (c *SavingsEmployeeController) GetCustomerAccounts(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	customerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	accounts, err := c.accounts.GetSavingsByCustomer(caller, customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// GetCustomerDeposits возвращает вклады клиента
func (c *SavingsEmployeeController) GetCustomerDeposits(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	customerID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid customer id", http.StatusBadRequest)
		return
	}

	accounts, err := c.deposits.GetFixedDepositsByCustomer(caller, customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// CounterDeposit проводит кассовое пополнение счета клиента
func (c *SavingsEmployeeController) CounterDeposit(w http.ResponseWriter, r *http.Request) {
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
	if err := c.validator.Struct(dto); err != nil {
		http.Error(w, err.(validator.ValidationErrors).Error(), http.StatusBadRequest)
		return
	}

	account, err := c.ledger.Deposit(caller, accountID, dto.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// CounterWithdraw проводит кассовое снятие со счета клиента
func (c *SavingsEmployeeController) CounterWithdraw(w http.ResponseWriter, r *http.Request) {
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
	if err := c.validator.Struct(dto); err != nil {
		http.Error(w, err.(validator.ValidationErrors).Error(), http.StatusBadRequest)
		return
	}

	account, err := c.ledger.Withdraw(caller, accountID, dto.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

// CloseAccount закрывает сберегательный счет клиента
func (c *SavingsEmployeeController) CloseAccount(w http.ResponseWriter, r *http.Request) {
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

// CloseDeposit закрывает вклад клиента с выплатой на его счет
func (c *SavingsEmployeeController) CloseDeposit(w http.ResponseWriter, r *http.Request) {
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

// RegisterRoutes регистрирует маршруты контроллера
func (c *SavingsEmployeeController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/staff/savings/customers", c.RegisterCustomer).Methods("POST")
	router.HandleFunc("/staff/savings/customers/{id}/accounts", c.OpenSavingsForCustomer).Methods("POST")
	router.HandleFunc("/staff/savings/customers/{id}/accounts", c.GetCustomerAccounts).Methods("GET")
	router.HandleFunc("/staff/savings/customers/{id}/deposits", c.OpenDepositForCustomer).Methods("POST")
	router.HandleFunc("/staff/savings/customers/{id}/deposits", c.GetCustomerDeposits).Methods("GET")
	router.HandleFunc("/staff/savings/accounts/{id}/deposit", c.CounterDeposit).Methods("POST")
	router.HandleFunc("/staff/savings/accounts/{id}/withdraw", c.CounterWithdraw).Methods("POST")
	router.HandleFunc("/staff/savings/accounts/{id}", c.CloseAccount).Methods("DELETE")
	router.HandleFunc("/staff/savings/deposits/{id}/close", c.CloseDeposit).Methods("POST")
}
