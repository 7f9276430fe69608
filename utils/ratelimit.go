package utils

import (
	"sync"
	"time"
)

// RateLimiter реализует ограничение частоты запросов
// по скользящему окну на ключ (IP-адрес клиента)
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow проверяет, разрешен ли запрос, и учитывает его
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	// Очищаем запросы, вышедшие из окна
	if requests, exists := rl.requests[key]; exists {
		var validRequests []time.Time
		for _, t := range requests {
			if t.After(windowStart) {
				validRequests = append(validRequests, t)
			}
		}
		rl.requests[key] = validRequests
	}

	// Проверяем лимит
	if len(rl.requests[key]) >= rl.limit {
		return false
	}

	rl.requests[key] = append(rl.requests[key], now)
	return true
}

// Reset сбрасывает счетчик для ключа
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.requests, key)
}

// GetRemaining возвращает количество оставшихся запросов в окне
func (rl *RateLimiter) GetRemaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.window)

	valid := 0
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid++
		}
	}

	remaining := rl.limit - valid
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// GetResetTime возвращает время, когда лимит для ключа освободится
func (rl *RateLimiter) GetResetTime(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if len(rl.requests[key]) == 0 {
		return time.Now()
	}

	oldestRequest := rl.requests[key][0]
	return oldestRequest.Add(rl.window)
}
