package models

// User — профиль пользователя платформы DocParse.
//
// Профиль не кэшируется на диске: после перезапуска клиент заново
// запрашивает его у бэкенда (хранится только пара токенов).
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Company  string `json:"companyName,omitempty"`
	Verified bool   `json:"isEmailVerified"`
}
