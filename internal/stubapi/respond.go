package stubapi

import (
	"encoding/json"
	"net/http"
)

// apiError — единый формат ошибки для фронта/CLI.
// Code — короткий стабильный код для машиночитаемой обработки,
// Message — безопасное человекочитаемое описание,
// RequestID — прокидывается из X-Request-Id для трассировки.
type apiError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// errorResponse — корневой объект в ответе об ошибке.
type errorResponse struct {
	Error apiError `json:"error"`
}

// writeJSON — единый ответ JSON с нужным Content-Type.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// writeError пишет унифицированный конверт ошибки,
// добавляя request_id из заголовка, если он есть.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	resp := errorResponse{Error: apiError{Code: code, Message: message}}
	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	writeJSON(w, status, resp)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}
