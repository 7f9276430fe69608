package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"bankoffice/utils"

	"github.com/golang-jwt/jwt/v5"
)

type LoggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *LoggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware логирует информацию о запросе и ответе
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Создаем обертку для ResponseWriter
		lrw := &LoggingResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		// Обрабатываем запрос
		next.ServeHTTP(lrw, r)

		duration := time.Since(start)
		utils.LogInfo("Request: %s %s - Status: %d - Duration: %v",
			r.Method,
			r.URL.Path,
			lrw.statusCode,
			duration,
		)
		utils.GetMetrics().RecordRequest(duration, lrw.statusCode >= http.StatusInternalServerError)
	})
}

// AuthMiddleware проверяет JWT токен и добавляет данные пользователя
// в контекст запроса: user_id, role и email
func AuthMiddleware(jwtKey []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Получаем токен из заголовка
			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header is required", http.StatusUnauthorized)
				return
			}

			// Убираем префикс "Bearer " если он есть
			if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
				tokenString = tokenString[7:]
			}

			// Парсим и проверяем токен
			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return jwtKey, nil
			})

			if err != nil {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			// Проверяем claims
			if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
				userID, ok := claims["user_id"].(float64)
				if !ok {
					http.Error(w, "Invalid user_id in token", http.StatusUnauthorized)
					return
				}
				role, ok := claims["role"].(string)
				if !ok {
					http.Error(w, "Invalid role in token", http.StatusUnauthorized)
					return
				}

				// Добавляем заголовок X-User-ID
				r.Header.Set("X-User-ID", strconv.FormatUint(uint64(userID), 10))

				// Добавляем информацию о пользователе в контекст запроса
				ctx := r.Context()
				ctx = context.WithValue(ctx, "user_id", uint(userID))
				ctx = context.WithValue(ctx, "role", role)
				if email, ok := claims["email"].(string); ok {
					ctx = context.WithValue(ctx, "email", email)
				}
				r = r.WithContext(ctx)
			} else {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole пропускает запрос только для перечисленных ролей
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := r.Context().Value("role").(string)
			if !ok {
				http.Error(w, "Invalid token claims", http.StatusUnauthorized)
				return
			}
			if _, ok := allowed[role]; !ok {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserFromContext получает информацию о пользователе из контекста
func GetUserFromContext(r *http.Request) (uint, string, error) {
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		return 0, "", fmt.Errorf("user_id not found in context")
	}

	role, ok := r.Context().Value("role").(string)
	if !ok {
		return 0, "", fmt.Errorf("role not found in context")
	}

	return userID, role, nil
}
