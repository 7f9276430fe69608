package services

import (
	"testing"

	"bankoffice/models"
	"bankoffice/utils"

	"github.com/shopspring/decimal"
)

func TestOpenSavingsCustomerChannelPending(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	account, err := svc.OpenSavings(customerCaller(customer.ID), customer.ID, decimal.NewFromInt(5000))
	if err != nil {
		t.Fatalf("не удалось открыть счет: %v", err)
	}

	// Заявка клиента всегда попадает в очередь
	if account.Status != models.AccountStatusPending {
		t.Errorf("статус = %s, want PENDING", account.Status)
	}
	if !account.Balance.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("баланс = %s, want 5000", account.Balance)
	}

	// Первоначальный взнос зафиксирован в журнале
	var entries []models.SavingsTransaction
	db.Where("account_id = ?", account.ID).Find(&entries)
	if len(entries) != 1 || entries[0].Type != models.SavingsTransactionDeposit {
		t.Fatalf("ожидалась одна запись о взносе, получено %d", len(entries))
	}
}

func TestOpenSavingsStaffChannelActive(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	staff := Caller{UserID: 1, Role: RoleSavingsStaff}
	account, err := svc.OpenSavings(staff, customer.ID, decimal.NewFromInt(2000))
	if err != nil {
		t.Fatalf("не удалось открыть счет: %v", err)
	}
	if account.Status != models.AccountStatusActive {
		t.Errorf("счет, открытый сотрудником, должен быть сразу активным, статус = %s", account.Status)
	}
}

func TestOpenSavingsBelowMinimum(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	_, err := svc.OpenSavings(customerCaller(customer.ID), customer.ID, decimal.NewFromInt(999))
	requireKind(t, err, ErrKindValidation)
}

func TestOpenSavingsSingleOpenAccount(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)
	caller := customerCaller(customer.ID)

	if _, err := svc.OpenSavings(caller, customer.ID, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("не удалось открыть первый счет: %v", err)
	}

	// Второй незакрытый счет не допускается даже в статусе PENDING
	_, err := svc.OpenSavings(caller, customer.ID, decimal.NewFromInt(1000))
	requireKind(t, err, ErrKindConflict)
}

func TestOpenSavingsAfterClosureAllowed(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)
	caller := customerCaller(customer.ID)

	first := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(1500))
	if err := svc.CloseSavings(caller, first.ID); err != nil {
		t.Fatalf("не удалось закрыть счет: %v", err)
	}

	if _, err := svc.OpenSavings(caller, customer.ID, decimal.NewFromInt(1000)); err != nil {
		t.Fatalf("после закрытия счета новый должен открываться: %v", err)
	}
}

func TestApproveSavings(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	account, _ := svc.OpenSavings(customerCaller(customer.ID), customer.ID, decimal.NewFromInt(1000))

	if err := svc.ApproveSavings(account.ID); err != nil {
		t.Fatalf("не удалось одобрить заявку: %v", err)
	}
	if got := reloadSavings(t, db, account.ID); got.Status != models.AccountStatusActive {
		t.Errorf("статус = %s, want ACTIVE", got.Status)
	}

	// Повторное решение по той же заявке не проходит
	requireKind(t, svc.ApproveSavings(account.ID), ErrKindState)
	requireKind(t, svc.RejectSavings(account.ID), ErrKindState)
}

func TestRejectSavings(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	account, _ := svc.OpenSavings(customerCaller(customer.ID), customer.ID, decimal.NewFromInt(1000))

	if err := svc.RejectSavings(account.ID); err != nil {
		t.Fatalf("не удалось отклонить заявку: %v", err)
	}
	if got := reloadSavings(t, db, account.ID); got.Status != models.AccountStatusRejected {
		t.Errorf("статус = %s, want REJECTED", got.Status)
	}
}

func TestDecideSavingsNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	requireKind(t, svc.ApproveSavings(777), ErrKindNotFound)
}

func TestCloseSavingsPaysOutResidual(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)
	account := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(2500))

	if err := svc.CloseSavings(customerCaller(customer.ID), account.ID); err != nil {
		t.Fatalf("не удалось закрыть счет: %v", err)
	}

	got := reloadSavings(t, db, account.ID)
	if got.Status != models.AccountStatusClosed {
		t.Errorf("статус = %s, want CLOSED", got.Status)
	}
	if !got.Balance.IsZero() {
		t.Errorf("баланс после закрытия = %s, want 0", got.Balance)
	}

	// Выдача остатка отражена в журнале
	var entry models.SavingsTransaction
	if err := db.Where("account_id = ? AND type = ?", account.ID, models.SavingsTransactionWithdrawal).
		First(&entry).Error; err != nil {
		t.Fatalf("нет записи о выдаче остатка: %v", err)
	}
	if !entry.Amount.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("сумма выдачи = %s, want 2500", entry.Amount)
	}
}

func TestCloseSavingsBlockedByOpenLoan(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)
	account := createActiveSavings(t, db, customer.ID, decimal.NewFromInt(2000))

	loan := &models.LoanAccount{
		Number:       utils.NewUUIDAllocator().AccountNumber("LN"),
		CustomerID:   customer.ID,
		LoanAmount:   decimal.NewFromInt(50000),
		LNROI:        decimal.NewFromFloat(10.0),
		TenureMonths: 12,
		EMIAmount:    mustDecimal(t, "4395.79"),
		Status:       models.AccountStatusActive,
	}
	if err := db.Create(loan).Error; err != nil {
		t.Fatalf("не удалось создать кредит: %v", err)
	}

	err := svc.CloseSavings(customerCaller(customer.ID), account.ID)
	requireKind(t, err, ErrKindPrecondition)

	// Счет остается активным
	if got := reloadSavings(t, db, account.ID); got.Status != models.AccountStatusActive {
		t.Errorf("статус = %s, want ACTIVE", got.Status)
	}
}

func TestCloseSavingsOnlyActive(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	account, _ := svc.OpenSavings(customerCaller(customer.ID), customer.ID, decimal.NewFromInt(1000))
	err := svc.CloseSavings(customerCaller(customer.ID), account.ID)
	requireKind(t, err, ErrKindState)
}

func TestSavingsOwnershipHidesForeignAccount(t *testing.T) {
	db := newTestDB(t)
	owner := createTestCustomer(t, db, dobForAge(30))
	other := createTestCustomer(t, db, dobForAge(40))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)
	account := createActiveSavings(t, db, owner.ID, decimal.NewFromInt(2000))

	// Чужой счет неотличим от несуществующего
	_, err := svc.GetSavingsByID(customerCaller(other.ID), account.ID)
	requireKind(t, err, ErrKindNotFound)

	// Сотруднику счет виден
	if _, err := svc.GetSavingsByID(Caller{UserID: 1, Role: RoleManager}, account.ID); err != nil {
		t.Fatalf("менеджеру счет должен быть доступен: %v", err)
	}
}

func TestRoleCanOpenDepartmentBoundaries(t *testing.T) {
	db := newTestDB(t)
	customer := createTestCustomer(t, db, dobForAge(30))
	svc := NewAccountService(db, utils.NewUUIDAllocator(), true)

	// Операционист кредитного отдела не открывает сберегательные счета
	loanStaff := Caller{UserID: 1, Role: RoleLoanStaff}
	_, err := svc.OpenSavings(loanStaff, customer.ID, decimal.NewFromInt(1000))
	requireKind(t, err, ErrKindNotFound)
}
