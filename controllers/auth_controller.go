package controllers

import (
	"encoding/json"
	"net/http"
	"regexp"
	"time"

	"bankoffice/config"
	"bankoffice/database"
	"bankoffice/models"
	"bankoffice/services"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

// AuthController обрабатывает регистрацию и вход клиентов и сотрудников
type AuthController struct {
	customers *services.CustomerService
	employees *services.EmployeeService
	validate  *validator.Validate
	config    *config.Config
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type SignUpRequest struct {
	FirstName   string `json:"firstName" validate:"required,min=2,max=50"`
	LastName    string `json:"lastName" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	PAN         string `json:"pan" validate:"required,len=10"`
	Phone       string `json:"phone" validate:"omitempty,min=5,max=15"`
	Address     string `json:"address" validate:"omitempty,max=255"`
	Gender      string `json:"gender" validate:"omitempty,oneof=M F"`
	DateOfBirth string `json:"dateOfBirth" validate:"required"` // формат 2006-01-02
	Password    string `json:"password" validate:"required,min=8,password"`
}

type Token struct {
	Token  string `json:"token"`
	Email  string `json:"email"`
	UserID uint   `json:"userId"`
	Role   string `json:"role"`
}

type AuthResponse struct {
	Token Token `json:"token"`
	User  struct {
		ID        uint   `json:"id"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	} `json:"user"`
}

// NewAuthController создает новый экземпляр AuthController
func NewAuthController(db *database.Database, cfg *config.Config) *AuthController {
	validate := validator.New()

	// Регистрация кастомной валидации для пароля
	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		password := fl.Field().String()
		// Проверка на наличие хотя бы одной цифры
		hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
		// Проверка на наличие хотя бы одной заглавной буквы
		hasUpper := regexp.MustCompile(`[A-Z]`).MatchString(password)
		// Проверка на наличие хотя бы одной строчной буквы
		hasLower := regexp.MustCompile(`[a-z]`).MatchString(password)

		return hasNumber && hasUpper && hasLower
	})

	return &AuthController{
		customers: services.NewCustomerService(db.DB),
		employees: services.NewEmployeeService(db.DB),
		validate:  validate,
		config:    cfg,
	}
}

// SignUp регистрирует нового клиента
func (c *AuthController) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	// Валидация запроса
	if err := c.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		http.Error(w, validationErrors.Error(), http.StatusBadRequest)
		return
	}

	dob, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		http.Error(w, "Invalid dateOfBirth, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	customer, err := c.customers.Register(services.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PAN:         req.PAN,
		Phone:       req.Phone,
		Address:     req.Address,
		Gender:      req.Gender,
		DateOfBirth: dob,
		Password:    req.Password,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := c.generateToken(customer.ID, customer.Email, string(services.RoleCustomer))
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	response := AuthResponse{Token: *token}
	response.User.ID = customer.ID
	response.User.FirstName = customer.FirstName
	response.User.LastName = customer.LastName
	response.User.Email = customer.Email

	writeJSON(w, http.StatusCreated, response)
}

// SignIn обрабатывает вход клиента
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeSignIn(w, r)
	if !ok {
		return
	}

	customer, err := c.customers.FindByEmail(req.Email)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	// Проверяем пароль
	if err := bcrypt.CompareHashAndPassword([]byte(customer.Password), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := c.generateToken(customer.ID, customer.Email, string(services.RoleCustomer))
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

// EmployeeSignIn обрабатывает вход сотрудника. Роль в токене
// определяется типом сотрудника и его отделом.
func (c *AuthController) EmployeeSignIn(w http.ResponseWriter, r *http.Request) {
	req, ok := c.decodeSignIn(w, r)
	if !ok {
		return
	}

	employee, err := c.employees.FindByEmail(req.Email)
	if err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(employee.Password), []byte(req.Password)); err != nil {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := c.generateToken(employee.ID, employee.Email, string(employeeRole(employee)))
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, token)
}

func (c *AuthController) decodeSignIn(w http.ResponseWriter, r *http.Request) (*SignInRequest, bool) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}

	// Валидация запроса
	if err := c.validate.Struct(req); err != nil {
		validationErrors := err.(validator.ValidationErrors)
		http.Error(w, validationErrors.Error(), http.StatusBadRequest)
		return nil, false
	}

	return &req, true
}

// employeeRole отображает тип и отдел сотрудника в роль
func employeeRole(employee *models.Employee) services.Role {
	if employee.Type == models.EmployeeTypeManager {
		return services.RoleManager
	}
	if employee.Department == models.DepartmentLoan {
		return services.RoleLoanStaff
	}
	return services.RoleSavingsStaff
}

// GetJWTKey возвращает ключ для JWT
func (c *AuthController) GetJWTKey() string {
	return c.config.JWT.SecretKey
}

// generateToken создает JWT токен
func (c *AuthController) generateToken(userID uint, email, role string) (*Token, error) {
	expirationTime := time.Now().Add(time.Duration(c.config.JWT.ExpiresIn) * time.Hour)
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"role":    role,
		"exp":     expirationTime.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(c.config.JWT.SecretKey))
	if err != nil {
		return nil, err
	}

	return &Token{
		Token:  tokenString,
		Email:  email,
		UserID: userID,
		Role:   role,
	}, nil
}

// RegisterRoutes регистрирует публичные маршруты аутентификации
func (c *AuthController) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/auth/signUp", c.SignUp).Methods("POST")
	router.HandleFunc("/api/auth/signIn", c.SignIn).Methods("POST")
	router.HandleFunc("/api/auth/employee/signIn", c.EmployeeSignIn).Methods("POST")
}
