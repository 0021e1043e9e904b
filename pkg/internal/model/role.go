package model

import "fmt"

// Role 用户角色，取值封闭.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
	RoleGuest   Role = "guest"
)

// Roles 返回全部角色.
func Roles() []Role {
	return []Role{RoleStudent, RoleAdmin, RoleGuest}
}

// Valid 判断角色是否为已知取值.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleAdmin, RoleGuest:
		return true
	default:
		return false
	}
}

// ParseRole 解析角色字符串.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}

	return r, nil
}

func (r Role) String() string { return string(r) }
