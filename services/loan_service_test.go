package services

import (
	"testing"
	"time"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
)

func TestOpenLoanDisbursesToSavings(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	savings := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)

	// Кредит, оформленный сотрудником, активируется и выдается сразу
	staff := Caller{UserID: 1, Role: RoleLoanStaff}
	loan, err := svc.OpenLoan(staff, customer.ID, decimal.NewFromInt(100000), 12, decimal.NewFromInt(20000))
	if err != nil {
		t.Fatalf("не удалось оформить кредит: %v", err)
	}

	if loan.Status != models.AccountStatusActive {
		t.Errorf("статус = %s, want ACTIVE", loan.Status)
	}
	if loan.EMIAmount.StringFixed(2) != "8791.59" {
		t.Errorf("платеж = %s, want 8791.59", loan.EMIAmount.StringFixed(2))
	}
	if loan.LNROI.StringFixed(1) != "10.0" {
		t.Errorf("ставка = %s, want 10.0", loan.LNROI)
	}

	// Сумма кредита зачислена на сберегательный счет
	if got := reloadSavings(t, db, savings.ID); !got.Balance.Equal(decimal.NewFromInt(101000)) {
		t.Errorf("баланс счета = %s, want 101000", got.Balance)
	}
}

func TestOpenLoanCustomerChannelPendingNoDisbursal(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	savings := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)

	loan, err := svc.OpenLoan(customerCaller(customer.ID), customer.ID,
		decimal.NewFromInt(100000), 12, decimal.NewFromInt(20000))
	if err != nil {
		t.Fatalf("не удалось создать заявку: %v", err)
	}

	if loan.Status != models.AccountStatusPending {
		t.Errorf("статус = %s, want PENDING", loan.Status)
	}
	// До одобрения средства не выдаются
	if got := reloadSavings(t, db, savings.ID); !got.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("баланс счета = %s, want 1000", got.Balance)
	}

	// Одобрение выдает средства
	if err := svc.ApproveLoan(loan.ID); err != nil {
		t.Fatalf("не удалось одобрить кредит: %v", err)
	}
	if got := reloadSavings(t, db, savings.ID); !got.Balance.Equal(decimal.NewFromInt(101000)) {
		t.Errorf("баланс счета после одобрения = %s, want 101000", got.Balance)
	}
}

func TestOpenLoanRequiresActiveSavings(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)

	_, err := svc.OpenLoan(customerCaller(customer.ID), customer.ID,
		decimal.NewFromInt(50000), 12, decimal.NewFromInt(20000))
	requireKind(t, err, ErrKindPrecondition)
}

func TestOpenLoanAffordability(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)

	// Платеж 8791.59 при доходе 10000 превышает 60%
	_, err := svc.OpenLoan(customerCaller(customer.ID), customer.ID,
		decimal.NewFromInt(100000), 12, decimal.NewFromInt(10000))
	requireKind(t, err, ErrKindPolicyViolation)
}

func TestOpenLoanSeniorPolicy(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(65))
	createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)
	staff := Caller{UserID: 1, Role: RoleLoanStaff}

	// Сумма сверх потолка отклоняется полностью
	_, err := svc.OpenLoan(staff, customer.ID, decimal.NewFromInt(150000), 36, decimal.NewFromInt(50000))
	requireKind(t, err, ErrKindPolicyViolation)

	// В пределах потолка действует фиксированная ставка 9.5
	loan, err := svc.OpenLoan(staff, customer.ID, decimal.NewFromInt(90000), 36, decimal.NewFromInt(50000))
	if err != nil {
		t.Fatalf("не удалось оформить кредит: %v", err)
	}
	if loan.LNROI.StringFixed(1) != "9.5" {
		t.Errorf("ставка = %s, want 9.5", loan.LNROI)
	}
	if loan.EMIAmount.StringFixed(2) != "2882.97" {
		t.Errorf("платеж = %s, want 2882.97", loan.EMIAmount.StringFixed(2))
	}
}

func TestOpenLoanValidations(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)
	caller := customerCaller(customer.ID)

	_, err := svc.OpenLoan(caller, customer.ID, decimal.NewFromInt(9999), 12, decimal.NewFromInt(20000))
	requireKind(t, err, ErrKindValidation)

	_, err = svc.OpenLoan(caller, customer.ID, decimal.NewFromInt(50000), 0, decimal.NewFromInt(20000))
	requireKind(t, err, ErrKindValidation)

	_, err = svc.OpenLoan(caller, customer.ID, decimal.NewFromInt(50000), 12, decimal.Zero)
	requireKind(t, err, ErrKindValidation)
}

func TestRecordLoanPaymentChain(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	savings := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)
	staff := Caller{UserID: 1, Role: RoleLoanStaff}

	loan, err := svc.OpenLoan(staff, customer.ID, decimal.NewFromInt(100000), 12, decimal.NewFromInt(20000))
	if err != nil {
		t.Fatalf("не удалось оформить кредит: %v", err)
	}

	caller := customerCaller(customer.ID)
	emi := loan.EMIAmount

	// Остаток убывает на сумму каждого платежа
	wantOutstanding := []string{"91208.41", "82416.82", "73625.23"}
	for i, want := range wantOutstanding {
		entry, err := svc.RecordLoanPayment(caller, loan.ID, emi)
		if err != nil {
			t.Fatalf("платеж %d не прошел: %v", i+1, err)
		}
		if entry.Outstanding.StringFixed(2) != want {
			t.Errorf("остаток после платежа %d = %s, want %s",
				i+1, entry.Outstanding.StringFixed(2), want)
		}
		if entry.PaidDate == nil {
			t.Errorf("платеж %d без даты оплаты", i+1)
		}
	}

	// Платежи списаны со сберегательного счета
	got := reloadSavings(t, db, savings.ID)
	wantBalance := decimal.NewFromInt(101000).Sub(emi.Mul(decimal.NewFromInt(3)))
	if !got.Balance.Equal(wantBalance) {
		t.Errorf("баланс счета = %s, want %s", got.Balance, wantBalance)
	}
}

func TestRecordLoanPaymentInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)

	savings := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(100))
	loan := &models.LoanAccount{
		Number:       utils.NewUUIDAllocator().AccountNumber("LN"),
		CustomerID:   customer.ID,
		LoanAmount:   decimal.NewFromInt(100000),
		LNROI:        decimal.NewFromFloat(10.0),
		TenureMonths: 12,
		EMIAmount:    mustDecimal(t, "8791.59"),
		StartDate:    time.Now(),
		Status:       models.AccountStatusActive,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatal(err)
	}

	_, err := svc.RecordLoanPayment(customerCaller(customer.ID), loan.ID, loan.EMIAmount)
	requireKind(t, err, ErrKindInsufficientFunds)

	// Ни журнал платежей, ни баланс не изменились
	var count int64
	db.Model(&models.LoanTransaction{}).Where("account_id = ?", loan.ID).Count(&count)
	if count != 0 {
		t.Errorf("записей о платежах: %d, want 0", count)
	}
	if got := reloadSavings(t, db, savings.ID); !got.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("баланс счета = %s, want 100", got.Balance)
	}
}

func TestRecordLoanPaymentLatePenalty(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	savings := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(50000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)

	// Кредит, первый платеж по которому просрочен на месяц
	loan := &models.LoanAccount{
		Number:       utils.NewUUIDAllocator().AccountNumber("LN"),
		CustomerID:   customer.ID,
		LoanAmount:   decimal.NewFromInt(100000),
		LNROI:        decimal.NewFromFloat(10.0),
		TenureMonths: 12,
		EMIAmount:    mustDecimal(t, "8791.59"),
		StartDate:    time.Now().AddDate(0, -2, -1),
		Status:       models.AccountStatusActive,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatal(err)
	}

	entry, err := svc.RecordLoanPayment(customerCaller(customer.ID), loan.ID, loan.EMIAmount)
	if err != nil {
		t.Fatalf("платеж не прошел: %v", err)
	}

	// Штраф 10% от платежа
	wantPenalty := mustDecimal(t, "879.16")
	if !entry.Penalty.Equal(wantPenalty) {
		t.Errorf("штраф = %s, want %s", entry.Penalty, wantPenalty)
	}

	// Со счета списаны платеж и штраф вместе
	got := reloadSavings(t, db, savings.ID)
	wantBalance := decimal.NewFromInt(50000).Sub(loan.EMIAmount).Sub(wantPenalty)
	if !got.Balance.Equal(wantBalance) {
		t.Errorf("баланс счета = %s, want %s", got.Balance, wantBalance)
	}
}

func TestLoanAutoClosesAtZeroOutstanding(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	createActiveSavings(t, db, customer.ID, decimal.NewFromInt(30000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)

	loan := &models.LoanAccount{
		Number:       utils.NewUUIDAllocator().AccountNumber("LN"),
		CustomerID:   customer.ID,
		LoanAmount:   decimal.NewFromInt(12000),
		LNROI:        decimal.Zero,
		TenureMonths: 12,
		EMIAmount:    decimal.NewFromInt(1000),
		StartDate:    time.Now(),
		Status:       models.AccountStatusActive,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatal(err)
	}

	// Платеж сверх остатка гасит кредит, остаток обрезается до нуля
	entry, err := svc.RecordLoanPayment(customerCaller(customer.ID), loan.ID, decimal.NewFromInt(13000))
	if err != nil {
		t.Fatalf("платеж не прошел: %v", err)
	}
	if !entry.Outstanding.IsZero() {
		t.Errorf("остаток = %s, want 0", entry.Outstanding)
	}

	var got models.LoanAccount
	db.First(&got, loan.ID)
	if got.Status != models.AccountStatusClosed {
		t.Errorf("статус = %s, want CLOSED", got.Status)
	}

	// Дальнейшие платежи невозможны
	_, err = svc.RecordLoanPayment(customerCaller(customer.ID), loan.ID, decimal.NewFromInt(1000))
	requireKind(t, err, ErrKindState)
}

func TestForecloseLoan(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	savings := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)
	staff := Caller{UserID: 1, Role: RoleLoanStaff}

	loan, err := svc.OpenLoan(staff, customer.ID, decimal.NewFromInt(100000), 12, decimal.NewFromInt(20000))
	if err != nil {
		t.Fatalf("не удалось оформить кредит: %v", err)
	}

	caller := customerCaller(customer.ID)
	if _, err := svc.RecordLoanPayment(caller, loan.ID, loan.EMIAmount); err != nil {
		t.Fatalf("платеж не прошел: %v", err)
	}

	entry, err := svc.ForecloseLoan(caller, loan.ID)
	if err != nil {
		t.Fatalf("досрочное погашение не прошло: %v", err)
	}

	// Списан весь остаток одним платежом
	if entry.Amount.StringFixed(2) != "91208.41" {
		t.Errorf("сумма погашения = %s, want 91208.41", entry.Amount.StringFixed(2))
	}
	if !entry.Outstanding.IsZero() {
		t.Errorf("остаток = %s, want 0", entry.Outstanding)
	}

	var got models.LoanAccount
	db.First(&got, loan.ID)
	if got.Status != models.AccountStatusClosed {
		t.Errorf("статус = %s, want CLOSED", got.Status)
	}

	// 1000 + 100000 - 8791.59 - 91208.41 = 1000
	if gotSavings := reloadSavings(t, db, savings.ID); !gotSavings.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("баланс счета = %s, want 1000", gotSavings.Balance)
	}
}

func TestOutstandingBeforeAnyPayment(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))
	svc := NewLoanService(db, utils.NewUUIDAllocator(), true, 0.10)
	staff := Caller{UserID: 1, Role: RoleLoanStaff}

	loan, err := svc.OpenLoan(staff, customer.ID, decimal.NewFromInt(100000), 12, decimal.NewFromInt(20000))
	if err != nil {
		t.Fatalf("не удалось оформить кредит: %v", err)
	}

	outstanding, err := svc.Outstanding(customerCaller(customer.ID), loan.ID)
	if err != nil {
		t.Fatalf("не удалось получить остаток: %v", err)
	}
	if !outstanding.Equal(decimal.NewFromInt(100000)) {
		t.Errorf("остаток = %s, want 100000", outstanding)
	}
}
