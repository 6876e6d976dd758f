// Package profile собирает профиль участника: имя, кредиты, опыт, коллекция.
package profile

// Profile: то, что показывает !профиль. Кэшируется в Redis целиком.
type Profile struct {
	UserID      int64  `json:"user_id"`
	DisplayName string `json:"display_name"`
	Balance     int64  `json:"balance"`
	XP          int64  `json:"xp"`
	Items       int64  `json:"items"`
	Cases       int64  `json:"cases"`
}
