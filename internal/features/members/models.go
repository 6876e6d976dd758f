// Package members ведёт реестр участников чата.
// models.go описывает структуры данных для работы с таблицей members.
package members

import "time"

// Member представляет участника чата в базе данных.
// Запись появляется при первом сообщении или вступлении в чат.
type Member struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`    // Telegram user ID (уникальный)
	Username  string    `db:"username"`   // @username (может быть пустым)
	FirstName string    `db:"first_name"` // Имя пользователя
	LastName  string    `db:"last_name"`  // Фамилия (может быть пустой)
	IsBanned  bool      `db:"is_banned"`
	JoinedAt  time.Time `db:"joined_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// UpdateInfo содержит данные для обновления информации о пользователе.
// Имя и username могли измениться с прошлого раза.
type UpdateInfo struct {
	Username  string
	FirstName string
	LastName  string
}

// DisplayName возвращает отображаемое имя пользователя.
// Если есть @username: возвращает его, иначе, имя + фамилию.
func (m *Member) DisplayName() string {
	if m.Username != "" {
		return "@" + m.Username
	}
	name := m.FirstName
	if m.LastName != "" {
		name += " " + m.LastName
	}
	return name
}
