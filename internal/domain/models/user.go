package models

type User struct {
	ChatID      int64
	Name        string
	Admin       bool
	Blocked     bool
	Pending     bool
	RequestSent bool
}

// NewPendingUser создает пользователя при первом обращении: заблокирован до одобрения администратором.
func NewPendingUser(chatID int64, name string) *User {
	return &User{
		ChatID:  chatID,
		Name:    name,
		Blocked: true,
		Pending: true,
	}
}

type AuthState int

const (
	AuthBlocked AuthState = iota
	AuthPending
	AuthMember
	AuthAdmin
)

func (s AuthState) String() string {
	switch s {
	case AuthPending:
		return "pending"
	case AuthMember:
		return "member"
	case AuthAdmin:
		return "admin"
	default:
		return "blocked"
	}
}

func (u *User) AuthState() AuthState {
	switch {
	case u.Blocked && u.Pending:
		return AuthPending
	case u.Blocked:
		return AuthBlocked
	case u.Admin:
		return AuthAdmin
	default:
		return AuthMember
	}
}

type UserStats struct {
	Total       int
	Blocked     int
	Pending     int
	RequestSent int
	Admins      int
}
