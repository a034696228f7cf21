package models

import "time"

// Роли пользователей.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User зарегистрированный пользователь клуба.
type User struct {
	UUID         string    // Уникальный идентификатор пользователя
	Email        string    // Электронная почта
	Username     string    // Имя пользователя (уникальное)
	PasswordHash string    // bcrypt-хэш пароля
	Role         string    // admin или user
	CreatedAt    time.Time // Дата регистрации
}
