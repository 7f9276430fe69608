package main

import (
	"fmt"
	"log"
	"net/http"

	"bankoffice/config"
	"bankoffice/controllers"
	"bankoffice/database"
	"bankoffice/middleware"
	"bankoffice/services"
	"bankoffice/utils"

	"github.com/gorilla/mux"
)

func initScheduler(db *database.Database, cfg *config.Config, emailService *services.EmailService) {
	alloc := utils.NewUUIDAllocator()
	depositService := services.NewDepositService(db.DB, alloc, cfg.Policy.StaffAutoActive)
	loanService := services.NewLoanService(db.DB, alloc, cfg.Policy.StaffAutoActive, cfg.Policy.LatePenaltyRate)

	scheduler := services.NewSchedulerService(db.DB, depositService, loanService, emailService)
	scheduler.Start()
	log.Println("Планировщик регламентных задач запущен")
}

// healthHandler отвечает на проверку работоспособности
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"ok"}`)
}

func main() {
	// Инициализируем конфигурацию
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	// Инициализируем подключение к базе данных
	db, err := database.NewDatabase(cfg)
	if err != nil {
		log.Fatalf("Ошибка подключения к базе данных: %v", err)
	}

	// Инициализируем сервис email
	emailService := services.NewEmailService(cfg)

	// Запускаем планировщик выплат по вкладам и платежей по кредитам
	initScheduler(db, cfg, emailService)

	// Создаем роутер
	router := mux.NewRouter()
	router.Use(middleware.Recovery)
	router.Use(middleware.RateLimit)

	router.HandleFunc("/health", healthHandler).Methods("GET")

	// Инициализируем контроллеры
	authController := controllers.NewAuthController(db, cfg)
	customerController := controllers.NewCustomerController(db, cfg)
	savingsEmployeeController := controllers.NewSavingsEmployeeController(db, cfg)
	loanEmployeeController := controllers.NewLoanEmployeeController(db, cfg)
	managerController := controllers.NewManagerController(db, cfg, emailService)

	// Публичные маршруты для аутентификации
	authController.RegisterRoutes(router)

	// Защищенные маршруты
	protected := router.PathPrefix("/api").Subrouter()
	protected.Use(middleware.AuthMiddleware([]byte(authController.GetJWTKey())))
	protected.Use(middleware.LoggingMiddleware)

	// Самообслуживание клиента
	customerRoutes := protected.NewRoute().Subrouter()
	customerRoutes.Use(middleware.RequireRole(string(services.RoleCustomer)))
	customerController.RegisterRoutes(customerRoutes)

	// Операционист отдела вкладов
	savingsRoutes := protected.NewRoute().Subrouter()
	savingsRoutes.Use(middleware.RequireRole(string(services.RoleSavingsStaff), string(services.RoleManager)))
	savingsEmployeeController.RegisterRoutes(savingsRoutes)

	// Операционист кредитного отдела
	loanRoutes := protected.NewRoute().Subrouter()
	loanRoutes.Use(middleware.RequireRole(string(services.RoleLoanStaff), string(services.RoleManager)))
	loanEmployeeController.RegisterRoutes(loanRoutes)

	// Менеджер
	managerRoutes := protected.NewRoute().Subrouter()
	managerRoutes.Use(middleware.RequireRole(string(services.RoleManager)))
	managerController.RegisterRoutes(managerRoutes)

	// Запускаем сервер
	port := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Сервер запущен на порту %s", port)
	if err := http.ListenAndServe(port, router); err != nil {
		log.Fatalf("Ошибка запуска сервера: %v", err)
	}
}
