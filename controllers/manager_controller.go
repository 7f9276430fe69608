package controllers

import (
	"encoding/json"
	"net/http"

	"bankoffice/config"
	"bankoffice/database"
	"bankoffice/models"
	"bankoffice/services"
	"bankoffice/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
)

// ManagerController обрабатывает операции менеджера: очередь заявок,
// решения по ним, учетные записи сотрудников и метрики
type ManagerController struct {
	approvals *services.ApprovalService
	employees *services.EmployeeService
	validator *validator.Validate
}

// NewManagerController создает новый экземпляр ManagerController
func NewManagerController(db *database.Database, cfg *config.Config, email *services.EmailService) *ManagerController {
	alloc := utils.NewUUIDAllocator()
	accounts := services.NewAccountService(db.DB, alloc, cfg.Policy.StaffAutoActive)
	deposits := services.NewDepositService(db.DB, alloc, cfg.Policy.StaffAutoActive)
	loans := services.NewLoanService(db.DB, alloc, cfg.Policy.StaffAutoActive, cfg.Policy.LatePenaltyRate)

	return &ManagerController{
		approvals: services.NewApprovalService(db.DB, accounts, deposits, loans, email),
		employees: services.NewEmployeeService(db.DB),
		validator: validator.New(),
	}
}

type CreateEmployeeRequest struct {
	FirstName  string `json:"firstName" validate:"required,min=2,max=50"`
	LastName   string `json:"lastName" validate:"required,min=2,max=50"`
	Email      string `json:"email" validate:"required,email"`
	PAN        string `json:"pan" validate:"required,len=10"`
	Type       string `json:"type" validate:"required,oneof=STAFF MANAGER"`
	Department string `json:"department" validate:"required,oneof=SAVINGS LOAN"`
	Password   string `json:"password" validate:"required,min=8"`
}

type DecisionRequest struct {
	Approve bool `json:"approve"`
}

// ListPending возвращает очередь заявок, опционально по типу
// (?type=SAVINGS|FD|LOAN)
func (c *ManagerController) ListPending(w http.ResponseWriter, r *http.Request) {
	requests, err := c.approvals.ListPending(r.URL.Query().Get("type"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// Decide применяет решение по заявке
func (c *ManagerController) Decide(w http.ResponseWriter, r *http.Request) {
	accountType := mux.Vars(r)["type"]
	accountID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid account id", http.StatusBadRequest)
		return
	}

	var dto DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := c.approvals.Decide(accountType, accountID, dto.Approve)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": message})
}

// CreateEmployee создает учетную запись сотрудника
func (c *ManagerController) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var dto CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := c.validator.Struct(dto); err != nil {
		http.Error(w, err.(validator.ValidationErrors).Error(), http.StatusBadRequest)
		return
	}

	employee, err := c.employees.CreateEmployee(caller, services.CreateEmployeeInput{
		FirstName:  dto.FirstName,
		LastName:   dto.LastName,
		Email:      dto.Email,
		PAN:        dto.PAN,
		Type:       models.EmployeeType(dto.Type),
		Department: models.Department(dto.Department),
		Password:   dto.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":         employee.ID,
		"firstName":  employee.FirstName,
		"lastName":   employee.LastName,
		"email":      employee.Email,
		"type":       employee.Type,
		"department": employee.Department,
		"active":     employee.Active,
	})
}

// ListEmployees возвращает список сотрудников
func (c *ManagerController) ListEmployees(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	employees, err := c.employees.ListEmployees(caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, employees)
}

// DeactivateEmployee отключает учетную запись сотрудника
func (c *ManagerController) DeactivateEmployee(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerFromRequest(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	employeeID, ok := pathID(r, "id")
	if !ok {
		http.Error(w, "Invalid employee id", http.StatusBadRequest)
		return
	}

	if err := c.employees.DeactivateEmployee(caller, employeeID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Сотрудник деактивирован"})
}

// GetMetrics возвращает снимок операционных метрик
func (c *ManagerController) GetMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, utils.GetMetrics().Snapshot())
}

// RegisterRoutes регистрирует маршруты контроллера
func (c *ManagerController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/manager/approvals", c.ListPending).Methods("GET")
	router.HandleFunc("/manager/approvals/{type}/{id}", c.Decide).Methods("POST")
	router.HandleFunc("/manager/employees", c.CreateEmployee).Methods("POST")
	router.HandleFunc("/manager/employees", c.ListEmployees).Methods("GET")
	router.HandleFunc("/manager/employees/{id}", c.DeactivateEmployee).Methods("DELETE")
	router.HandleFunc("/manager/metrics", c.GetMetrics).Methods("GET")
}
