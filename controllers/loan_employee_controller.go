package controllers

import (
	"encoding/json"
	"net/http"

	"bankoffice/config"
	"bankoffice/database"
	"bankoffice/services"
	"bankoffice/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// LoanEmployeeController обрабатывает операции операциониста кредитного
// отдела: оформление кредитов и проведение платежей от имени клиента
type LoanEmployeeController struct {
	loans     *services.LoanService
	validator *validator.Validate
}

// NewLoanEmployeeController создает новый экземпляр LoanEmployeeController
func NewLoanEmployeeController(db *database.Database, cfg *config.Config) *LoanEmployeeController {
	return &LoanEmployeeController{
		loans:     services.NewLoanService(db.DB, utils.NewUUIDAllocator(), cfg.Policy.StaffAutoActive, cfg.Policy.LatePenaltyRate),
		validator: validator.New(),
	}
}

// OpenLoanForCustomer оформляет кредит клиенту. Кредит, оформленный
// сотрудником, активируется и выдается без очереди на одобрение.
func (c *LoanEmployeeController) OpenLoanForCustomer(w http.ResponseWriter, r *http.Request) {
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

	var dto OpenLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(dto); err != nil {
		http.Error(w, err.(validator.ValidationErrors).Error(), http.StatusBadRequest)
		return
	}

	account, err := c.loans.OpenLoan(caller, customerID, dto.Amount, dto.TenureMonths, dto.MonthlyIncome)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, account)
}

// GetCustomerLoans возвращает кредиты клиента
func (c *LoanEmployeeController) GetCustomerLoans(w http.ResponseWriter, r *http.Request) {
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

	accounts, err := c.loans.GetLoansByCustomer(caller, customerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// RecordPayment проводит платеж по кредиту клиента
func (c *LoanEmployeeController) RecordPayment(w http.ResponseWriter, r *http.Request) {
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

	entry, err := c.loans.RecordLoanPayment(caller, accountID, dto.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Foreclose досрочно погашает кредит клиента
func (c *LoanEmployeeController) Foreclose(w http.ResponseWriter, r *http.Request) {
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
func (c *LoanEmployeeController) GetLoanTransactions(w http.ResponseWriter, r *http.Request) {
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

// RegisterRoutes регистрирует маршруты контроллера
func (c *LoanEmployeeController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/staff/loan/customers/{id}/loans", c.OpenLoanForCustomer).Methods("POST")
	router.HandleFunc("/staff/loan/customers/{id}/loans", c.GetCustomerLoans).Methods("GET")
	router.HandleFunc("/staff/loan/loans/{id}/payment", c.RecordPayment).Methods("POST")
	router.HandleFunc("/staff/loan/loans/{id}/foreclose", c.Foreclose).Methods("POST")
	router.HandleFunc("/staff/loan/loans/{id}/transactions", c.GetLoanTransactions).Methods("GET")
}
