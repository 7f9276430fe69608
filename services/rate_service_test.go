package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAge(t *testing.T) {
	asOf := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		dob  time.Time
		want int
	}{
		{"день рождения уже прошел", time.Date(1990, 3, 1, 0, 0, 0, 0, time.UTC), 36},
		{"день рождения еще не наступил", time.Date(1990, 9, 1, 0, 0, 0, 0, time.UTC), 35},
		{"день рождения сегодня", time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC), 36},
		{"день рождения завтра", time.Date(1990, 6, 16, 0, 0, 0, 0, time.UTC), 35},
		{"ровно 60 лет", time.Date(1966, 6, 15, 0, 0, 0, 0, time.UTC), 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Age(tt.dob, asOf); got != tt.want {
				t.Errorf("Age() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsSenior(t *testing.T) {
	if IsSenior(59) {
		t.Error("59 лет не должно считаться льготным возрастом")
	}
	if !IsSenior(60) {
		t.Error("60 лет должно считаться льготным возрастом")
	}
	if !IsSenior(75) {
		t.Error("75 лет должно считаться льготным возрастом")
	}
}

func TestFDRate(t *testing.T) {
	tests := []struct {
		name   string
		tenure int
		senior bool
		want   float64
	}{
		{"до года", 12, false, 6.0},
		{"до двух лет", 24, false, 7.0},
		{"свыше двух лет", 36, false, 8.0},
		{"месяц", 1, false, 6.0},
		{"13 месяцев", 13, false, 7.0},
		{"25 месяцев", 25, false, 8.0},
		{"до года, льготная", 12, true, 6.5},
		{"свыше двух лет, льготная", 36, true, 8.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FDRate(tt.tenure, tt.senior); got != tt.want {
				t.Errorf("FDRate(%d, %v) = %v, want %v", tt.tenure, tt.senior, got, tt.want)
			}
		})
	}
}

func TestLoanRate(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		senior bool
		want   float64
	}{
		{"малая сумма", "100000", false, 10.0},
		{"граница 500000", "500000", false, 9.5},
		{"граница 1000000", "1000000", false, 9.0},
		{"чуть меньше 500000", "499999.99", false, 10.0},
		{"льготная ставка", "50000", true, 9.5},
		{"льготная на границе", "100000", true, 9.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, _ := decimal.NewFromString(tt.amount)
			got, err := LoanRate(amount, tt.senior)
			if err != nil {
				t.Fatalf("LoanRate() вернул ошибку: %v", err)
			}
			if got != tt.want {
				t.Errorf("LoanRate(%s, %v) = %v, want %v", tt.amount, tt.senior, got, tt.want)
			}
		})
	}
}

func TestLoanRateSeniorLimit(t *testing.T) {
	amount := decimal.NewFromInt(100001)
	_, err := LoanRate(amount, true)
	requireKind(t, err, ErrKindPolicyViolation)

	// Та же сумма для обычного клиента проходит
	if _, err := LoanRate(amount, false); err != nil {
		t.Fatalf("для обычного клиента ограничение не действует: %v", err)
	}
}
