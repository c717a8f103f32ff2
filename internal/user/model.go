package user

// User is the profile of a portal customer as held by the order backend.
type User struct {
	ID       int64  `json:"user_id"`   // ID пользователя
	Username string `json:"user_name"` // Логин
	Address  string `json:"address"`   // Адрес доставки
	Email    string `json:"email"`     // Электронная почта
}

// Registration is what a new customer submits to create an account.
type Registration struct {
	Username string `json:"user_name"`
	Password string `json:"-"` // Пароль (не возвращаем в ответах)
	Address  string `json:"address"`
	Email    string `json:"email"`
}

// DisplayName is used on invoices; it falls back to the email for accounts
// created through a federated login without a username.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}
