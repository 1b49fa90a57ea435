package models

import "strings"

type User struct {
	ID        int64  `json:"id" db:"id"`
	Login     string `json:"login" db:"login"`
	Firstname string `json:"firstname" db:"firstname"`
	Lastname  string `json:"lastname" db:"lastname"`
	TimeZone  string `json:"time_zone" db:"time_zone"` // preference, may be blank
}

// String returns the display name, falling back to the login.
func (u *User) String() string {
	if u == nil {
		return ""
	}
	name := strings.TrimSpace(u.Firstname + " " + u.Lastname)
	if name == "" {
		return u.Login
	}
	return name
}
