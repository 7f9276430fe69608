package database

import (
	"bankoffice/config"
	"bankoffice/models"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database представляет подключение к базе данных
type Database struct {
	DB *gorm.DB
}

// NewDatabase создает новое подключение к базе данных
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := Connect(cfg)
	if err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

// GetDB возвращает экземпляр GORM
func (d *Database) GetDB() *gorm.DB {
	return d.DB
}

// Close закрывает подключение к базе данных
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Connect устанавливает соединение с базой данных и выполняет миграции
func Connect(cfg *config.Config) (*gorm.DB, error) {
	// Формируем строку подключения
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.DBName,
	)

	// Настраиваем логгер
	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	// Устанавливаем соединение
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %v", err)
	}

	// Настраиваем пул соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("ошибка получения пула соединений: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Выполняем SQL миграции
	if err := runMigrations(cfg); err != nil {
		return nil, fmt.Errorf("ошибка выполнения SQL миграций: %v", err)
	}

	// Выполняем автоматическую миграцию моделей
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("ошибка автоматической миграции моделей: %v", err)
	}

	return db, nil
}

// runMigrations выполняет SQL миграции
func runMigrations(cfg *config.Config) error {
	// Формируем URL для миграций
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.DBName,
	)

	// Создаем экземпляр миграции
	m, err := migrate.New(
		"file://migrations",
		dsn,
	)
	if err != nil {
		return fmt.Errorf("ошибка создания миграции: %v", err)
	}

	// Выполняем миграции
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("ошибка выполнения миграций: %v", err)
	}

	return nil
}

// AutoMigrate выполняет автоматическую миграцию моделей
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
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
		return fmt.Errorf("ошибка автоматической миграции: %v", err)
	}

	return nil
}

// Методы для работы с клиентами

func (d *Database) GetCustomerByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	err := d.DB.First(&customer, id).Error
	return &customer, err
}

func (d *Database) GetCustomerByEmail(email string) (*models.Customer, error) {
	var customer models.Customer
	err := d.DB.Where("email = ?", email).First(&customer).Error
	return &customer, err
}

// Методы для работы с сотрудниками

func (d *Database) GetEmployeeByID(id uint) (*models.Employee, error) {
	var employee models.Employee
	err := d.DB.First(&employee, id).Error
	return &employee, err
}

func (d *Database) GetEmployeeByEmail(email string) (*models.Employee, error) {
	var employee models.Employee
	err := d.DB.Where("email = ?", email).First(&employee).Error
	return &employee, err
}
