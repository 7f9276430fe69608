package services

import (
	"time"

	"github.com/shopspring/decimal"
)

// Политика минимальных сумм и ставок.
// Ставки заданы в процентах годовых.
const (
	SeniorAge       = 60  // Возраст, с которого действует льготная ставка
	SeniorRateBonus = 0.5 // Надбавка к ставке по вкладу для пожилых клиентов
	MinCustomerAge  = 18  // Минимальный возраст клиента при регистрации
)

var (
	MinSavingsOpenAmount = decimal.NewFromInt(1000)   // Минимальный первый взнос на счет
	MinDepositAmount     = decimal.NewFromInt(10000)  // Минимальная сумма вклада
	MinLoanAmount        = decimal.NewFromInt(10000)  // Минимальная сумма кредита
	MinOperationAmount   = decimal.NewFromInt(100)    // Минимальная сумма пополнения/снятия
	SeniorLoanLimit      = decimal.NewFromInt(100000) // Потолок кредита для пожилых клиентов
)

// Age возвращает полное число лет между датой рождения и asOf.
// Если день рождения в текущем году еще не наступил, год не засчитывается.
func Age(dob, asOf time.Time) int {
	years := asOf.Year() - dob.Year()
	if asOf.Month() < dob.Month() ||
		(asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		years--
	}
	return years
}

// IsSenior сообщает, действует ли для клиента льготная политика
func IsSenior(age int) bool {
	return age >= SeniorAge
}

// FDBaseRate возвращает базовую ставку по вкладу в зависимости от срока
func FDBaseRate(tenureMonths int) float64 {
	switch {
	case tenureMonths <= 12:
		return 6.0
	case tenureMonths <= 24:
		return 7.0
	default:
		return 8.0
	}
}

// FDRate возвращает итоговую ставку по вкладу: базовая ставка по сроку
// плюс надбавка для пожилых клиентов
func FDRate(tenureMonths int, senior bool) float64 {
	rate := FDBaseRate(tenureMonths)
	if senior {
		rate += SeniorRateBonus
	}
	return rate
}

// LoanRate возвращает ставку по кредиту в зависимости от суммы.
// Для пожилых клиентов ставка фиксированная 9.5%, но сумма свыше
// SeniorLoanLimit отклоняется полностью, а не переоценивается.
func LoanRate(amount decimal.Decimal, senior bool) (float64, error) {
	if senior {
		if amount.GreaterThan(SeniorLoanLimit) {
			return 0, NewPolicyViolationError("для клиентов старше 60 лет сумма кредита не может превышать 100000")
		}
		return 9.5, nil
	}
	switch {
	case amount.GreaterThanOrEqual(decimal.NewFromInt(1000000)):
		return 9.0, nil
	case amount.GreaterThanOrEqual(decimal.NewFromInt(500000)):
		return 9.5, nil
	default:
		return 10.0, nil
	}
}
