package services

import (
	"errors"
	"time"

	"bankoffice/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// CustomerService управляет карточками клиентов: регистрация,
// изменение контактных данных, поиск. Email и ИНН уникальны;
// ИНН проверяется и среди сотрудников.
type CustomerService struct {
	db *gorm.DB
}

// NewCustomerService создает новый экземпляр CustomerService
func NewCustomerService(db *gorm.DB) *CustomerService {
	return &CustomerService{db: db}
}

// RegisterInput — данные регистрации клиента
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PAN         string
	Phone       string
	Address     string
	Gender      string
	DateOfBirth time.Time
	Password    string
}

// Register регистрирует нового клиента. Клиент должен быть
// совершеннолетним; email и ИНН не должны встречаться ни у клиентов,
// ни у сотрудников.
func (s *CustomerService) Register(in RegisterInput) (*models.Customer, error) {
	if Age(in.DateOfBirth, time.Now()) < MinCustomerAge {
		return nil, NewValidationError("клиент должен быть старше 18 лет")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, NewStorageError("ошибка при хешировании пароля", err)
	}

	var customer *models.Customer
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Customer{}).
			Where("email = ?", in.Email).
			Count(&count).Error; err != nil {
			return NewStorageError("ошибка при проверке email", err)
		}
		if count > 0 {
			return NewConflictError("клиент с таким email уже зарегистрирован")
		}

		if err := panTaken(tx, in.PAN); err != nil {
			return err
		}

		customer = &models.Customer{
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			Email:       in.Email,
			PAN:         in.PAN,
			Phone:       in.Phone,
			Address:     in.Address,
			Gender:      in.Gender,
			DateOfBirth: in.DateOfBirth,
			Password:    string(hash),
		}
		if err := tx.Create(customer).Error; err != nil {
			return NewStorageError("ошибка при создании клиента", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return customer, nil
}

// panTaken проверяет уникальность ИНН среди клиентов и сотрудников
func panTaken(tx *gorm.DB, pan string) error {
	var count int64
	if err := tx.Model(&models.Customer{}).
		Where("pan = ?", pan).
		Count(&count).Error; err != nil {
		return NewStorageError("ошибка при проверке ИНН", err)
	}
	if count > 0 {
		return NewConflictError("клиент с таким ИНН уже зарегистрирован")
	}
	if err := tx.Model(&models.Employee{}).
		Where("pan = ?", pan).
		Count(&count).Error; err != nil {
		return NewStorageError("ошибка при проверке ИНН", err)
	}
	if count > 0 {
		return NewConflictError("сотрудник с таким ИНН уже зарегистрирован")
	}
	return nil
}

// findCustomer загружает клиента по ID. Общая точка для сервисов,
// которым нужны email и имя клиента.
func findCustomer(db *gorm.DB, customerID uint) (*models.Customer, error) {
	var customer models.Customer
	if err := db.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("клиент не найден")
		}
		return nil, NewStorageError("ошибка при поиске клиента", err)
	}
	return &customer, nil
}

// UpdateSettings изменяет контактные данные клиента. Email, ИНН и дата
// рождения после регистрации не меняются.
func (s *CustomerService) UpdateSettings(caller Caller, customerID uint, phone, address string) (*models.Customer, error) {
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}

	var customer models.Customer
	if err := s.db.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("клиент не найден")
		}
		return nil, NewStorageError("ошибка при поиске клиента", err)
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if phone != "" {
		updates["phone"] = phone
	}
	if address != "" {
		updates["address"] = address
	}
	if err := s.db.Model(&customer).Updates(updates).Error; err != nil {
		return nil, NewStorageError("ошибка при обновлении данных клиента", err)
	}

	if phone != "" {
		customer.Phone = phone
	}
	if address != "" {
		customer.Address = address
	}
	return &customer, nil
}

// GetByID возвращает клиента по ID с проверкой доступа
func (s *CustomerService) GetByID(caller Caller, customerID uint) (*models.Customer, error) {
	if !caller.OwnsCustomer(customerID) {
		return nil, NewNotFoundError("клиент не найден")
	}
	var customer models.Customer
	if err := s.db.First(&customer, customerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("клиент не найден")
		}
		return nil, NewStorageError("ошибка при поиске клиента", err)
	}
	return &customer, nil
}

// FindByEmail возвращает клиента по email. Используется при входе.
func (s *CustomerService) FindByEmail(email string) (*models.Customer, error) {
	var customer models.Customer
	if err := s.db.Where("email = ?", email).First(&customer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NewNotFoundError("клиент не найден")
		}
		return nil, NewStorageError("ошибка при поиске клиента", err)
	}
	return &customer, nil
}
