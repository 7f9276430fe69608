package services

import (
	"fmt"
	"testing"
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB открывает изолированную БД в памяти для одного теста
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("не удалось открыть тестовую БД: %v", err)
	}

	err = db.AutoMigrate(
		&models.Customer{},
		&models.Employee{},
		&models.SavingsAccount{},
		&models.FixedDepositAccount{},
		&models.LoanAccount{},
		&models.SavingsTransaction{},
		&models.FDTransaction{},
		&models.LoanTransaction{},
	)
	if err != nil {
		t.Fatalf("не удалось выполнить миграцию: %v", err)
	}

	return db
}

var testCustomerSeq int

// createTestCustomer создает клиента с заданной датой рождения
func createTestCustomer(t *testing.T, db *gorm.DB, dob time.Time) *models.Customer {
	t.Helper()

	testCustomerSeq++
	customer := &models.Customer{
		FirstName:   "Иван",
		LastName:    "Петров",
		Email:       fmt.Sprintf("ivan.petrov.%s.%d@example.com", t.Name(), testCustomerSeq),
		PAN:         fmt.Sprintf("AB%08d", testCustomerSeq),
		DateOfBirth: dob,
		Password:    "hashed-password",
	}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("не удалось создать клиента: %v", err)
	}
	return customer
}

// dobForAge возвращает дату рождения клиента заданного возраста
func dobForAge(age int) time.Time {
	return time.Now().AddDate(-age, 0, -1)
}

// createActiveSavings открывает активный счет с заданным балансом
func createActiveSavings(t *testing.T, db *gorm.DB, customerID uint, balance decimal.Decimal) *models.SavingsAccount {
	t.Helper()

	account := &models.SavingsAccount{
		Number:     utils.NewUUIDAllocator().AccountNumber("SB"),
		CustomerID: customerID,
		Balance:    balance,
		Status:     models.AccountStatusActive,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("не удалось создать счет: %v", err)
	}
	return account
}

// customerCaller возвращает вызывающего-клиента
func customerCaller(customerID uint) Caller {
	return Caller{UserID: customerID, Role: RoleCustomer}
}

// reload возвращает свежую копию счета из БД
func reloadSavings(t *testing.T, db *gorm.DB, accountID uint) *models.SavingsAccount {
	t.Helper()

	var account models.SavingsAccount
	if err := db.First(&account, accountID).Error; err != nil {
		t.Fatalf("не удалось перечитать счет: %v", err)
	}
	return &account
}

// requireKind проверяет категорию ошибки
func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()

	if err == nil {
		t.Fatalf("ожидалась ошибка категории %s, получен nil", kind)
	}
	if KindOf(err) != kind {
		t.Fatalf("ожидалась ошибка категории %s, получена %s: %v", kind, KindOf(err), err)
	}
}

// mustDecimal разбирает десятичную строку
func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()

	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("неверное десятичное число %q: %v", s, err)
	}
	return d
}
