package model

import (
	"time"
)

// User is a login identity. Its role decides which profile is provisioned
// when it is created.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement" field:"read_only"`
	Username  string    `json:"username" gorm:"type:varchar(150);uniqueIndex;not null" field:"required,unique" validate:"required,max=150,username"`
	Email     string    `json:"email" gorm:"type:varchar(254)" validate:"omitempty,max=254,email"`
	FirstName string    `json:"first_name" gorm:"type:varchar(150)" validate:"max=150"`
	LastName  string    `json:"last_name" gorm:"type:varchar(150)" validate:"max=150"`
	Role      Role      `json:"tipo_usuario" gorm:"type:varchar(20);not null" validate:"oneof=CASAL CERIMONIALISTA FORNECEDOR ADMIN"`
	Password  string    `json:"password" gorm:"type:varchar(128);not null" field:"write_only,required" validate:"required,max=128,bcryptlen"`
	CreatedAt time.Time `json:"date_joined" field:"read_only"`
	UpdatedAt time.Time `json:"-"`
}

// NewUser returns a User with its defaults applied
func NewUser() *User {
	return &User{Role: RoleCouple}
}

func (u *User) String() string {
	return u.Username
}
