package models

// TokenPair — пара токенов, которую клиент хранит локально.
//
// Описание:
//   - AccessToken — короткоживущий JWT, уходит в Authorization: Bearer;
//   - RefreshToken — непрозрачный секрет для выпуска новой пары без
//     повторного входа; клиент не интерпретирует его содержимое.
type TokenPair struct {
	// AccessToken — JWT для авторизации запросов.
	AccessToken string
	// RefreshToken — секрет для обновления пары.
	RefreshToken string
}

// AuthResult — результат register/login: профиль + выданная пара токенов.
type AuthResult struct {
	User   User
	Tokens TokenPair
}
