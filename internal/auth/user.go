package auth

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInsufficientPermissions = errors.New("Insufficient permissions")

type Role int

const (
	RoleAdmin Role = iota
	RoleReadWrite
	RoleReadOnly
)

func ParseRole(role string) Role {
	switch role {
	case "admin":
		return RoleAdmin
	case "read-only":
		return RoleReadOnly
	default:
		return RoleReadWrite
	}
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleReadOnly:
		return "read-only"
	default:
		return "read-write"
	}
}

// HasClearance reports whether a user with role r may act at level `want`.
// Lower is more privileged.
func (r Role) HasClearance(want Role) bool {
	return r <= want
}

type User struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Password []byte `json:"password"`
	Role     Role   `json:"role"`
}

func NewUser(name, password string, role Role) *User {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		// only reachable with an invalid cost constant
		panic(err)
	}
	return &User{
		Id:       uuid.New().String(),
		Name:     name,
		Password: hashed,
		Role:     role,
	}
}

func (u *User) ValidatePassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Password, []byte(password)) == nil
}
