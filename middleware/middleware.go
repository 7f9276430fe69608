package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"bankoffice/utils"
)

var (
	// Глобальный rate limiter
	globalLimiter = utils.NewRateLimiter(100, time.Minute) // 100 запросов в минуту
)

// clientIP возвращает IP-адрес клиента
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit middleware для ограничения частоты запросов
func RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)

		// Проверяем лимит
		if !globalLimiter.Allow(ip) {
			w.Header().Set("X-RateLimit-Reset", globalLimiter.GetResetTime(ip).String())
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}

		// Добавляем заголовки с информацией о лимитах
		w.Header().Set("X-RateLimit-Limit", "100")
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(globalLimiter.GetRemaining(ip)))
		w.Header().Set("X-RateLimit-Reset", globalLimiter.GetResetTime(ip).String())

		next.ServeHTTP(w, r)
	})
}

// Recovery middleware для обработки паник
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				// Логируем панику
				utils.LogError("Panic recovered: %v", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
