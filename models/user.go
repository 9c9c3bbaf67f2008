package models

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleSecurity Role = "security"
	RoleHR       Role = "hr"
)

func (r Role) Valid() bool {
	return oneOf(r, RoleAdmin, RoleSecurity, RoleHR)
}

// User is an account of the dashboard. The password never leaves the server:
// it is excluded from every JSON encoding of the record.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null;size:100"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Password  string    `json:"-" gorm:"not null"`
	Role      Role      `json:"role" gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `json:"createdAt"`
}

type UserInsert struct {
	Username string  `json:"username" zog:"username"`
	Email    string  `json:"email" zog:"email"`
	Password string  `json:"password" zog:"password"`
	Role     *string `json:"role" zog:"role"`
}

func (in UserInsert) ToModel(now time.Time) User {
	return User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  in.Password,
		Role:      Role(stringOr(in.Role, string(RoleSecurity))),
		CreatedAt: now,
	}
}

type UserPatch struct {
	Username *string `json:"username" binding:"omitnil,min=1"`
	Email    *string `json:"email" binding:"omitnil,email"`
	Password *string `json:"password" binding:"omitnil,min=1"`
	Role     *Role   `json:"role" binding:"omitnil,oneof=admin security hr"`
}

func (p UserPatch) Apply(u *User) {
	setIf(&u.Username, p.Username)
	setIf(&u.Email, p.Email)
	setIf(&u.Password, p.Password)
	setIf(&u.Role, p.Role)
}
