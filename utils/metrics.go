package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики денежных операций
	Deposits            int64
	Withdrawals         int64
	Transfers           int64
	LoanPayments        int64
	DepositsClosed      int64
	LastOperationTime   time.Time
	FailedOperations    int64
	OperationsByOutcome map[string]int64

	// Метрики очереди заявок
	Approvals  int64
	Rejections int64

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorKinds    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			OperationsByOutcome: make(map[string]int64),
			ErrorKinds:          make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest записывает метрики HTTP-запроса
func (m *Metrics) RecordRequest(duration time.Duration, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()
	if failed {
		m.FailedRequests++
	}
}

// RecordOperation записывает исход денежной операции
func (m *Metrics) RecordOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastOperationTime = time.Now()
	switch operation {
	case "deposit":
		m.Deposits++
	case "withdraw":
		m.Withdrawals++
	case "transfer":
		m.Transfers++
	case "loan_payment", "loan_foreclosure":
		m.LoanPayments++
	case "fd_closure":
		m.DepositsClosed++
	}

	if err != nil {
		m.FailedOperations++
		m.OperationsByOutcome[operation+"_failed"]++
	} else {
		m.OperationsByOutcome[operation+"_ok"]++
	}
}

// RecordDecision записывает решение по заявке
func (m *Metrics) RecordDecision(approved bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if approved {
		m.Approvals++
	} else {
		m.Rejections++
	}
}

// RecordError записывает ошибку по категории
func (m *Metrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ErrorCount++
	m.LastErrorTime = time.Now()
	m.ErrorKinds[kind]++
}

// Snapshot возвращает копию метрик для отдачи наружу
func (m *Metrics) Snapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	outcomes := make(map[string]int64, len(m.OperationsByOutcome))
	for k, v := range m.OperationsByOutcome {
		outcomes[k] = v
	}
	kinds := make(map[string]int64, len(m.ErrorKinds))
	for k, v := range m.ErrorKinds {
		kinds[k] = v
	}

	return map[string]interface{}{
		"total_requests":    m.TotalRequests,
		"failed_requests":   m.FailedRequests,
		"average_latency":   m.AverageLatency.String(),
		"deposits":          m.Deposits,
		"withdrawals":       m.Withdrawals,
		"transfers":         m.Transfers,
		"loan_payments":     m.LoanPayments,
		"deposits_closed":   m.DepositsClosed,
		"failed_operations": m.FailedOperations,
		"operations":        outcomes,
		"approvals":         m.Approvals,
		"rejections":        m.Rejections,
		"errors":            m.ErrorCount,
		"error_kinds":       kinds,
	}
}
