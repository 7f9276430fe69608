package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"bankoffice/services"
	"bankoffice/utils"

	"github.com/gorilla/mux"
)

// ErrorResponse — тело ответа при ошибке
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// writeJSON отправляет JSON-ответ
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError отображает категорию бизнес-ошибки в HTTP-статус.
// Текст ошибки хранилища клиенту не отдается.
func writeError(w http.ResponseWriter, err error) {
	kind := services.KindOf(err)
	utils.GetMetrics().RecordError(string(kind))

	status := http.StatusInternalServerError
	message := err.Error()

	switch kind {
	case services.ErrKindValidation:
		status = http.StatusBadRequest
	case services.ErrKindConflict:
		status = http.StatusConflict
	case services.ErrKindPrecondition:
		status = http.StatusUnprocessableEntity
	case services.ErrKindInsufficientFunds:
		status = http.StatusUnprocessableEntity
	case services.ErrKindPolicyViolation:
		status = http.StatusUnprocessableEntity
	case services.ErrKindNotFound:
		status = http.StatusNotFound
	case services.ErrKindState:
		status = http.StatusConflict
	case services.ErrKindStorage:
		status = http.StatusInternalServerError
		message = "внутренняя ошибка сервера"
	}

	writeJSON(w, status, ErrorResponse{Error: message, Kind: string(kind)})
}

// pathID извлекает числовой параметр из пути запроса
func pathID(r *http.Request, name string) (uint, bool) {
	raw, ok := mux.Vars(r)[name]
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// callerFromRequest восстанавливает вызывающего из контекста запроса
// (установлен middleware)
func callerFromRequest(r *http.Request) (services.Caller, bool) {
	userID, ok := r.Context().Value("user_id").(uint)
	if !ok {
		return services.Caller{}, false
	}
	role, ok := r.Context().Value("role").(string)
	if !ok {
		return services.Caller{}, false
	}
	return services.Caller{UserID: userID, Role: services.Role(role)}, true
}
