package services

import (
	"errors"
	"time"

	"bankoffice/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EmployeeService управляет учетными записями сотрудников.
// Создание и деактивация доступны только менеджеру.
type EmployeeService struct {
	db *gorm.DB
}

// NewEmployeeService создает новый экземпляр EmployeeService
func NewEmployeeService(db *gorm.DB) *EmployeeService {
	return &EmployeeService{db: db}
}

// CreateEmployeeInput — данные новой учетной записи сотрудника
type CreateEmployeeInput struct {
	FirstName  string
	LastName   string
	Email      string
	PAN        string
	Type       models.EmployeeType
	Department models.Department
	Password   string
}

// CreateEmployee создает учетную запись сотрудника. ИНН проверяется
// на уникальность и среди клиентов.
func (s *EmployeeService) CreateEmployee(caller Caller, in CreateEmployeeInput) (*models.Employee, error) {
	if caller.Role != RoleManager {
		return nil, NewNotFoundError("операция недоступна для данной роли")
	}
	switch in.Type {
	case models.EmployeeTypeStaff, models.EmployeeTypeManager:
	default:
		return nil, NewValidationError("неизвестный тип сотрудника")
	}
	switch in.Department {
	case models.DepartmentSavings, models.DepartmentLoan:
	default:
		return nil, NewValidationError("неизвестный отдел")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewStorageError("ошибка при хешировании пароля", err)
	}

	var employee *models.Employee
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Employee{}).
			Where("email = ?", in.Email).
			Count(&count).Error; err != nil {
			return NewStorageError("ошибка при проверке email", err)
		}
		if count > 0 {
			return NewConflictError("сотрудник с таким email уже зарегистрирован")
		}

		if err := panTaken(tx, in.PAN); err != nil {
			return err
		}

		employee = &models.Employee{
			FirstName:  in.FirstName,
			LastName:   in.LastName,
			Email:      in.Email,
			PAN:        in.PAN,
			Type:       in.Type,
			Department: in.Department,
			Password:   string(hash),
			Active:     true,
		}
		if err := tx.Create(employee).Error; err != nil {
			return NewStorageError("ошибка при создании сотрудника", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return employee, nil
}

// ListEmployees возвращает всех сотрудников
func (s *EmployeeService) ListEmployees(caller Caller) ([]models.Employee, error) {
	if caller.Role != RoleManager {
		return nil, NewNotFoundError("операция недоступна для данной роли")
	}
	var employees []models.Employee
	if err := s.db.Order("created_at DESC").Find(&employees).Error; err != nil {
		return nil, NewStorageError("ошибка при получении списка сотрудников", err)
	}
	return employees, nil
}

// DeactivateEmployee отключает учетную запись сотрудника.
// Запись не удаляется, чтобы сохранить историю.
func (s *EmployeeService) DeactivateEmployee(caller Caller, employeeID uint) error {
	if caller.Role != RoleManager {
		return NewNotFoundError("операция недоступна для данной роли")
	}

	res := s.db.Model(&models.Employee{}).
		Where("id = ? AND active = ?", employeeID, true).
		Updates(map[string]interface{}{"active": false, "updated_at": time.Now()})
	if res.Error != nil {
		return NewStorageError("ошибка при деактивации сотрудника", res.Error)
	}
	if res.RowsAffected == 0 {
		var employee models.Employee
		if err := s.db.First(&employee, employeeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewNotFoundError("сотрудник не найден")
			}
			return NewStorageError("ошибка при поиске сотрудника", err)
		}
		return NewStateError("сотрудник уже деактивирован")
	}

	return nil
}

// FindByEmail возвращает активного сотрудника по email.
// Используется при входе.
func (s *EmployeeService) FindByEmail(email string) (*models.Employee, error) {
	var employee models.Employee
	if err := s.db.Where("email = ? AND active = ?", email, true).
		First(&employee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("сотрудник не найден")
		}
		return nil, NewStorageError("ошибка при поиске сотрудника", err)
	}
	return &employee, nil
}
