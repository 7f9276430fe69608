package services

import (
	"bankoffice/models"
)

// Тип счета в составных операциях (очередь заявок, решения)
const (
	AccountTypeSavings      = "SAVINGS"
	AccountTypeFixedDeposit = "FD"
	AccountTypeLoan         = "LOAN"
)

// initialStatus возвращает начальный статус счета по каналу создания.
// Заявки клиентов всегда попадают в очередь на одобрение; счета,
// открытые сотрудником, активируются сразу, если это разрешено политикой.
func initialStatus(caller Caller, staffAutoActive bool) models.AccountStatus {
	if caller.IsStaff() && staffAutoActive {
		return models.AccountStatusActive
	}
	return models.AccountStatusPending
}

// roleCanOpen проверяет, разрешено ли роли открывать счет данного типа.
// Операционисты ограничены своим отделом, менеджер и клиент — нет
// (клиент открывает только заявки на свои счета).
func roleCanOpen(role Role, accountType string) bool {
	switch role {
	case RoleCustomer, RoleManager, RoleSystem:
		return true
	case RoleSavingsStaff:
		return accountType == AccountTypeSavings || accountType == AccountTypeFixedDeposit
	case RoleLoanStaff:
		return accountType == AccountTypeLoan
	}
	return false
}
