package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config представляет конфигурацию приложения
type Config struct {
	Server struct {
		Port int
	}
	DB struct {
		Host     string
		Port     int
		User     string
		Password string
		DBName   string
	}
	JWT struct {
		SecretKey string
		ExpiresIn int // в часах
	}
	SMTP struct {
		Host     string
		Port     int
		Username string
		Password string
		From     string
	}
	Policy struct {
		// Счета, открытые сотрудником или менеджером, активируются сразу,
		// без очереди на одобрение. Заявки клиентов всегда создаются PENDING.
		StaffAutoActive bool
		// Доля от EMI, начисляемая как штраф при просроченном платеже
		LatePenaltyRate float64
	}
	StatementKey string // Ключ для HMAC-подписи выписок
}

// NewConfig загружает конфигурацию из переменных окружения
func NewConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	// Настройки сервера
	v.SetDefault("SERVER_PORT", 8080)

	// Настройки базы данных
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "bank_db")

	// Настройки JWT
	v.SetDefault("JWT_SECRET_KEY", "your-secret-key-here")
	v.SetDefault("JWT_EXPIRES_IN", 24)

	// Настройки SMTP
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("SMTP_USERNAME", "your-email@gmail.com")
	v.SetDefault("SMTP_PASSWORD", "your-app-password")
	v.SetDefault("SMTP_FROM", "your-email@gmail.com")

	// Бизнес-политика
	v.SetDefault("POLICY_STAFF_AUTO_ACTIVE", true)
	v.SetDefault("POLICY_LATE_PENALTY_RATE", 0.10)

	// Ключ подписи выписок
	v.SetDefault("STATEMENT_HMAC_KEY", "your-statement-hmac-key-here")

	cfg := &Config{}
	cfg.Server.Port = v.GetInt("SERVER_PORT")
	cfg.DB.Host = v.GetString("DB_HOST")
	cfg.DB.Port = v.GetInt("DB_PORT")
	cfg.DB.User = v.GetString("DB_USER")
	cfg.DB.Password = v.GetString("DB_PASSWORD")
	cfg.DB.DBName = v.GetString("DB_NAME")
	cfg.JWT.SecretKey = v.GetString("JWT_SECRET_KEY")
	cfg.JWT.ExpiresIn = v.GetInt("JWT_EXPIRES_IN")
	cfg.SMTP.Host = v.GetString("SMTP_HOST")
	cfg.SMTP.Port = v.GetInt("SMTP_PORT")
	cfg.SMTP.Username = v.GetString("SMTP_USERNAME")
	cfg.SMTP.Password = v.GetString("SMTP_PASSWORD")
	cfg.SMTP.From = v.GetString("SMTP_FROM")
	cfg.Policy.StaffAutoActive = v.GetBool("POLICY_STAFF_AUTO_ACTIVE")
	cfg.Policy.LatePenaltyRate = v.GetFloat64("POLICY_LATE_PENALTY_RATE")
	cfg.StatementKey = v.GetString("STATEMENT_HMAC_KEY")

	if cfg.Server.Port <= 0 {
		return nil, fmt.Errorf("неверный формат порта сервера: %d", cfg.Server.Port)
	}
	if cfg.JWT.SecretKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY обязателен")
	}
	if cfg.Policy.LatePenaltyRate < 0 || cfg.Policy.LatePenaltyRate > 1 {
		return nil, fmt.Errorf("неверное значение POLICY_LATE_PENALTY_RATE: %f", cfg.Policy.LatePenaltyRate)
	}

	return cfg, nil
}
