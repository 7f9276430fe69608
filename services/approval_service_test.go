package services

import (
	"testing"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
)

func TestListPendingCollectsAllTypes(t *testing.T) {
	db := newTestDB(t)
	alloc := utils.NewUUIDAllocator()
	accounts := NewAccountService(db, alloc, true)
	deposits := NewDepositService(db, alloc, true)
	loans := NewLoanService(db, alloc, true, 0.10)
	svc := NewApprovalService(db, accounts, deposits, loans, nil)

	customer := createTestCustomer(t, db, dobForAge(30))
	caller := customerCaller(customer.ID)

	// Заявка на счет
	if _, err := accounts.OpenSavings(caller, customer.ID, decimal.NewFromInt(5000)); err != nil {
		t.Fatal(err)
	}
	// Для вклада и кредита нужен активный счет: создаем второму клиенту
	other := createTestCustomer(t, db, dobForAge(40))
	createActiveSavings(t, db, other.ID, decimal.NewFromInt(50000))
	otherCaller := customerCaller(other.ID)
	if _, err := deposits.OpenFixedDeposit(otherCaller, other.ID, decimal.NewFromInt(10000), 12, true); err != nil {
		t.Fatal(err)
	}
	if _, err := loans.OpenLoan(otherCaller, other.ID, decimal.NewFromInt(50000), 12, decimal.NewFromInt(20000)); err != nil {
		t.Fatal(err)
	}

	requests, err := svc.ListPending("")
	if err != nil {
		t.Fatalf("не удалось получить очередь: %v", err)
	}
	if len(requests) != 3 {
		t.Fatalf("заявок в очереди: %d, want 3", len(requests))
	}

	// Порядок устойчив: по типу
	if requests[0].Type != AccountTypeFixedDeposit ||
		requests[1].Type != AccountTypeLoan ||
		requests[2].Type != AccountTypeSavings {
		t.Errorf("неверный порядок типов: %s, %s, %s",
			requests[0].Type, requests[1].Type, requests[2].Type)
	}

	// Фильтр по типу
	loansOnly, err := svc.ListPending(AccountTypeLoan)
	if err != nil {
		t.Fatal(err)
	}
	if len(loansOnly) != 1 || loansOnly[0].Type != AccountTypeLoan {
		t.Errorf("фильтр LOAN вернул %d заявок", len(loansOnly))
	}

	// Неизвестный фильтр
	_, err = svc.ListPending("BOGUS")
	requireKind(t, err, ErrKindValidation)
}

func TestDecideApproveSavings(t *testing.T) {
	db := newTestDB(t)
	alloc := utils.NewUUIDAllocator()
	accounts := NewAccountService(db, alloc, true)
	deposits := NewDepositService(db, alloc, true)
	loans := NewLoanService(db, alloc, true, 0.10)
	svc := NewApprovalService(db, accounts, deposits, loans, nil)

	customer := createTestCustomer(t, db, dobForAge(30))
	account, err := accounts.OpenSavings(customerCaller(customer.ID), customer.ID, decimal.NewFromInt(5000))
	if err != nil {
		t.Fatal(err)
	}

	message, err := svc.Decide(AccountTypeSavings, account.ID, true)
	if err != nil {
		t.Fatalf("решение не прошло: %v", err)
	}
	if message == "" {
		t.Error("ожидался текст решения")
	}
	if got := reloadSavings(t, db, account.ID); got.Status != models.AccountStatusActive {
		t.Errorf("статус = %s, want ACTIVE", got.Status)
	}

	// Решенная заявка исчезает из очереди
	requests, _ := svc.ListPending(AccountTypeSavings)
	if len(requests) != 0 {
		t.Errorf("в очереди осталось %d заявок, want 0", len(requests))
	}
}

func TestDecideRejectLoanNoDisbursal(t *testing.T) {
	db := newTestDB(t)
	alloc := utils.NewUUIDAllocator()
	accounts := NewAccountService(db, alloc, true)
	deposits := NewDepositService(db, alloc, true)
	loans := NewLoanService(db, alloc, true, 0.10)
	svc := NewApprovalService(db, accounts, deposits, loans, nil)

	customer := createTestCustomer(t, db, dobForAge(30))
	savings := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1000))

	loan, err := loans.OpenLoan(customerCaller(customer.ID), customer.ID,
		decimal.NewFromInt(50000), 12, decimal.NewFromInt(20000))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Decide(AccountTypeLoan, loan.ID, false); err != nil {
		t.Fatalf("решение не прошло: %v", err)
	}

	var got models.LoanAccount
	db.First(&got, loan.ID)
	if got.Status != models.AccountStatusRejected {
		t.Errorf("статус = %s, want REJECTED", got.Status)
	}
	// Отклоненный кредит не выдается
	if gotSavings := reloadSavings(t, db, savings.ID); !gotSavings.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("баланс счета = %s, want 1000", gotSavings.Balance)
	}
}

func TestDecideUnknownTypeAndMissingAccount(t *testing.T) {
	db := newTestDB(t)
	alloc := utils.NewUUIDAllocator()
	svc := NewApprovalService(db,
		NewAccountService(db, alloc, true),
		NewDepositService(db, alloc, true),
		NewLoanService(db, alloc, true, 0.10),
		nil)

	_, err := svc.Decide("BOGUS", 1, true)
	requireKind(t, err, ErrKindValidation)

	_, err = svc.Decide(AccountTypeSavings, 777, true)
	requireKind(t, err, ErrKindNotFound)
}
