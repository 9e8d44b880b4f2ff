package auth

import (
	"context"
	"errors"
	"strconv"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

var ErrBadSubject = errors.New("identity subject is not a user id")

// Identity 登录用户，UserID 是 JWT subject（users.id 的十进制串）
type Identity struct {
	UserID string
	Role   string
}

// ID 把 subject 解析成 users.id
func (i Identity) ID() (int64, error) {
	id, err := strconv.ParseInt(i.UserID, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrBadSubject
	}
	return id, nil
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func GetIdentity(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
