package services

// Role представляет роль вызывающего
type Role string

const (
	RoleCustomer     Role = "CUSTOMER"      // Клиент (самообслуживание)
	RoleSavingsStaff Role = "SAVINGS_STAFF" // Операционист отдела вкладов
	RoleLoanStaff    Role = "LOAN_STAFF"    // Операционист кредитного отдела
	RoleManager      Role = "MANAGER"       // Менеджер
	RoleSystem       Role = "SYSTEM"        // Фоновые задачи планировщика
)

// Caller представляет аутентифицированного вызывающего.
// Сервисы не доверяют сессионному слою: проверка владения счетом
// и прав роли выполняется здесь, по явно переданному контексту.
type Caller struct {
	UserID uint
	Role   Role
}

// IsStaff сообщает, действует ли вызывающий от имени банка
func (c Caller) IsStaff() bool {
	switch c.Role {
	case RoleSavingsStaff, RoleLoanStaff, RoleManager, RoleSystem:
		return true
	}
	return false
}

// OwnsCustomer проверяет, что клиентский вызов работает со своими данными.
// Для сотрудников ограничение не действует.
func (c Caller) OwnsCustomer(customerID uint) bool {
	if c.IsStaff() {
		return true
	}
	return c.UserID == customerID
}
