package models

// User is the signup record kept in the key-value store under user:<id>.
// It is not a gorm model: the profile travels as JSON, the way the wallet
// connection records do.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
	Score     int    `json:"score"`
}

func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
