package services

import (
	"testing"
	"time"

	"bankoffice/models"
)

func registerInput(email, pan string, dob time.Time) RegisterInput {
	return RegisterInput{
		FirstName:   "Анна",
		LastName:    "Смирнова",
		Email:       email,
		PAN:         pan,
		DateOfBirth: dob,
		Password:    "Secret123",
	}
}

func TestRegisterCustomer(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(db)

	customer, err := svc.Register(registerInput("anna@example.com", "ABCDE12345", dobForAge(25)))
	if err != nil {
		t.Fatalf("не удалось зарегистрировать клиента: %v", err)
	}
	if customer.ID == 0 {
		t.Error("клиенту не присвоен ID")
	}
	// Пароль хранится только в виде хеша
	if customer.Password == "Secret123" {
		t.Error("пароль сохранен открытым текстом")
	}
}

func TestRegisterUnderageRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(db)

	_, err := svc.Register(registerInput("kid@example.com", "ABCDE12345", dobForAge(17)))
	requireKind(t, err, ErrKindValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(db)

	if _, err := svc.Register(registerInput("dup@example.com", "ABCDE12345", dobForAge(25))); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Register(registerInput("dup@example.com", "FGHIJ67890", dobForAge(30)))
	requireKind(t, err, ErrKindConflict)
}

func TestRegisterPANUniqueAcrossEmployees(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(db)

	employee := &models.Employee{
		FirstName:  "Петр",
		LastName:   "Иванов",
		Email:      "staff@example.com",
		PAN:        "ZZZZZ99999",
		Type:       models.EmployeeTypeStaff,
		Department: models.DepartmentSavings,
		Password:   "hashed",
		Active:     true,
	}
	if err := db.Create(employee).Error; err != nil {
		t.Fatal(err)
	}

	// ИНН сотрудника блокирует регистрацию клиента
	_, err := svc.Register(registerInput("new@example.com", "ZZZZZ99999", dobForAge(25)))
	requireKind(t, err, ErrKindConflict)
}

func TestUpdateSettings(t *testing.T) {
	db := newTestDB(t)
	svc := NewCustomerService(db)
	customer := createTestCustomer(t, db, dobForAge(30))

	updated, err := svc.UpdateSettings(customerCaller(customer.ID), customer.ID,
		"+79991234567", "Москва, Тверская 1")
	if err != nil {
		t.Fatalf("не удалось обновить данные: %v", err)
	}
	if updated.Phone != "+79991234567" || updated.Address != "Москва, Тверская 1" {
		t.Errorf("данные не обновились: %s, %s", updated.Phone, updated.Address)
	}

	// Чужой профиль недоступен
	other := createTestCustomer(t, db, dobForAge(40))
	_, err = svc.UpdateSettings(customerCaller(other.ID), customer.ID, "123456", "")
	requireKind(t, err, ErrKindNotFound)
}

func TestCreateEmployeeManagerOnly(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmployeeService(db)

	input := CreateEmployeeInput{
		FirstName:  "Олег",
		LastName:   "Сидоров",
		Email:      "oleg@bank.example",
		PAN:        "QWERT12345",
		Type:       models.EmployeeTypeStaff,
		Department: models.DepartmentLoan,
		Password:   "Secret123",
	}

	// Операционист не может создавать сотрудников
	_, err := svc.CreateEmployee(Caller{UserID: 1, Role: RoleSavingsStaff}, input)
	requireKind(t, err, ErrKindNotFound)

	// Менеджер может
	employee, err := svc.CreateEmployee(Caller{UserID: 1, Role: RoleManager}, input)
	if err != nil {
		t.Fatalf("не удалось создать сотрудника: %v", err)
	}
	if !employee.Active {
		t.Error("новый сотрудник должен быть активен")
	}
}

func TestDeactivateEmployee(t *testing.T) {
	db := newTestDB(t)
	svc := NewEmployeeService(db)
	manager := Caller{UserID: 1, Role: RoleManager}

	employee, err := svc.CreateEmployee(manager, CreateEmployeeInput{
		FirstName:  "Олег",
		LastName:   "Сидоров",
		Email:      "oleg2@bank.example",
		PAN:        "QWERT54321",
		Type:       models.EmployeeTypeStaff,
		Department: models.DepartmentSavings,
		Password:   "Secret123",
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.DeactivateEmployee(manager, employee.ID); err != nil {
		t.Fatalf("не удалось деактивировать сотрудника: %v", err)
	}

	// Деактивированный сотрудник не находится при входе
	if _, err := svc.FindByEmail("oleg2@bank.example"); err == nil {
		t.Error("деактивированный сотрудник не должен находиться по email")
	}

	// Повторная деактивация
	requireKind(t, svc.DeactivateEmployee(manager, employee.ID), ErrKindState)
}
