package services

import (
	"fmt"
	"time"

	"bankoffice/config"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"
)

// EmailService предоставляет методы для отправки email
type EmailService struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailService создает новый экземпляр EmailService
func NewEmailService(cfg *config.Config) *EmailService {
	dialer := gomail.NewDialer(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Username,
		cfg.SMTP.Password,
	)

	return &EmailService{
		dialer: dialer,
		from:   cfg.SMTP.From,
	}
}

// SendEmail отправляет email
func (s *EmailService) SendEmail(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("ошибка отправки email: %v", err)
	}

	return nil
}

// SendDecisionNotification отправляет уведомление о решении по заявке
func (s *EmailService) SendDecisionNotification(to, accountNumber, accountType string, approved bool) error {
	decision := "одобрена"
	if !approved {
		decision = "отклонена"
	}
	subject := "Решение по вашей заявке"
	body := fmt.Sprintf(`
		<h2>Решение по заявке</h2>
		<p>Счет: %s</p>
		<p>Тип: %s</p>
		<p>Ваша заявка %s.</p>
		<p>Дата: %s</p>
	`, accountNumber, accountType, decision, time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendTransactionNotification отправляет уведомление об операции по счету
func (s *EmailService) SendTransactionNotification(to, accountNumber string, amount decimal.Decimal, operation string) error {
	subject := "Уведомление об операции"
	body := fmt.Sprintf(`
		<h2>Уведомление об операции</h2>
		<p>Счет: %s</p>
		<p>Тип операции: %s</p>
		<p>Сумма: %s</p>
		<p>Дата: %s</p>
	`, accountNumber, operation, amount.StringFixed(2), time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendDepositClosureNotification отправляет уведомление о выплате по вкладу
func (s *EmailService) SendDepositClosureNotification(to, accountNumber string, payout decimal.Decimal) error {
	subject := "Выплата по вкладу"
	body := fmt.Sprintf(`
		<h2>Выплата по вкладу</h2>
		<p>Вклад: %s</p>
		<p>Сумма выплаты: %s</p>
		<p>Средства зачислены на ваш сберегательный счет.</p>
		<p>Дата: %s</p>
	`, accountNumber, payout.StringFixed(2), time.Now().Format("02.01.2006 15:04:05"))

	return s.SendEmail(to, subject, body)
}

// SendLoanPaidNotification отправляет уведомление о погашении кредита
func (s *EmailService) SendLoanPaidNotification(to, accountNumber string) error {
	subject := "Поздравляем! Ваш кредит успешно погашен"
	body := fmt.Sprintf(`
		<h2>Поздравляем!</h2>
		<p>Ваш кредит %s был успешно погашен.</p>
		<p>Спасибо, что выбрали наш банк!</p>
		<p>Если у вас возникнут вопросы, пожалуйста, свяжитесь с нами.</p>
		<p>С уважением,<br>Команда банка</p>
	`, accountNumber)

	return s.SendEmail(to, subject, body)
}

// SendOverdueNotification отправляет уведомление о просроченном платеже
func (s *EmailService) SendOverdueNotification(to, accountNumber string, emi, penalty decimal.Decimal) error {
	subject := "Просроченный платеж по кредиту"
	body := fmt.Sprintf(`
		<h2>Просроченный платеж</h2>
		<p>Кредит: %s</p>
		<p>Сумма платежа: %s</p>
		<p>Начислен штраф: %s</p>
		<p>Пожалуйста, пополните сберегательный счет для списания платежа.</p>
	`, accountNumber, emi.StringFixed(2), penalty.StringFixed(2))

	return s.SendEmail(to, subject, body)
}
