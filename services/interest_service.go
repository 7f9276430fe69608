package services

import (
	"math"

	"github.com/shopspring/decimal"
)

// Числовая политика: хранимые и сравниваемые суммы — только decimal,
// промежуточные вычисления сложного процента и аннуитета — float64
// с округлением до 2 знаков (половина от нуля) на границе.

// AffordabilityRatio — максимально допустимая доля платежа от месячного дохода
var AffordabilityRatio = decimal.NewFromFloat(0.6)

// round2 округляет результат вычисления к хранимому виду
func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}

// MaturityValue возвращает сумму к выплате по вкладу при полном сроке:
// principal * (1 + rate/100)^(months/12), ежегодная капитализация
func MaturityValue(principal decimal.Decimal, annualRatePercent float64, tenureMonths int) decimal.Decimal {
	p, _ := principal.Float64()
	v := p * math.Pow(1+annualRatePercent/100, float64(tenureMonths)/12)
	return round2(v)
}

// AccruedValue возвращает накопленную сумму по вкладу при досрочном
// закрытии: показатель степени считается от фактически прошедших дней,
// principal * (1 + rate/100)^(days/365)
func AccruedValue(principal decimal.Decimal, annualRatePercent float64, elapsedDays int) decimal.Decimal {
	p, _ := principal.Float64()
	v := p * math.Pow(1+annualRatePercent/100, float64(elapsedDays)/365)
	return round2(v)
}

// EMI возвращает аннуитетный платеж по кредиту.
// Месячная ставка r = rate/(12*100); при нулевой ставке платеж равен
// principal/n, иначе стандартная формула p*r*(1+r)^n / ((1+r)^n - 1).
func EMI(principal decimal.Decimal, annualRatePercent float64, tenureMonths int) decimal.Decimal {
	p, _ := principal.Float64()
	n := float64(tenureMonths)
	r := annualRatePercent / (12 * 100)
	if r == 0 {
		return round2(p / n)
	}
	factor := math.Pow(1+r, n)
	v := p * r * factor / (factor - 1)
	return round2(v)
}

// Affordable проверяет платежеспособность: платеж не должен превышать
// 60% месячного дохода
func Affordable(emi, monthlyIncome decimal.Decimal) bool {
	return emi.LessThanOrEqual(monthlyIncome.Mul(AffordabilityRatio))
}
