package models

// Owner — владелец сессии, полученный от провайдера идентификации.
// Используется только для чтения: предзаполнение email и ключ хранения.
type Owner struct {
	ID    string // Идентификатор пользователя (user_uid из токена)
	Email string // Электронная почта для предзаполнения формы
}
