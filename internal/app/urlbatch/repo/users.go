package repo

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserAlreadyExists = errors.New("username already exists")
var ErrInvalidUsername = errors.New("username is not allowed")
var ErrInvalidPassword = errors.New("password is not allowed")

type UsersRepo struct {
	db *pgxpool.Pool
}

func NewUsersRepo(db *pgxpool.Pool) *UsersRepo {
	return &UsersRepo{db: db}
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         string
}

func (u *UsersRepo) FindByUsername(ctx context.Context, username string) (User, error) {
	username = strings.TrimSpace(username)
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	row := u.db.QueryRow(dbctx, "SELECT id, username, password_hash, role FROM users WHERE username=$1 LIMIT 1", username)
	var user User
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		slog.Error(err.Error())
		return User{}, err
	}
	return user, nil
}

// ValidateCredentials 注册前的用户名/密码规则检查。
// bcrypt 只使用前 72 字节，所以密码上限是 72。
func ValidateCredentials(name, password string) error {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 32 {
		return ErrInvalidUsername
	}
	if len(password) < 8 || len(password) > 72 {
		return ErrInvalidPassword
	}
	return nil
}

// Register 创建用户并开通积分账户（同一事务）。
func (u *UsersRepo) Register(ctx context.Context, name string, password string, signupCredits int) (int64, error) {
	name = strings.TrimSpace(name)
	if err := ValidateCredentials(name, password); err != nil {
		return -1, err
	}
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error(err.Error())
		return -1, err
	}
	dbctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := u.db.Begin(dbctx)
	if err != nil {
		slog.Error(err.Error())
		return -1, err
	}
	defer tx.Rollback(dbctx)

	var id int64
	if err := tx.
		QueryRow(dbctx, "INSERT INTO users (username,password_hash,role) VALUES ($1,$2,'user') ON CONFLICT (username) DO NOTHING RETURNING id", name, string(passwordHash)).
		Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return -1, ErrUserAlreadyExists
		}
		slog.Error(err.Error())
		return -1, err
	}

	if _, err := tx.Exec(dbctx, "INSERT INTO credit_accounts (user_id, credits_available) VALUES ($1,$2) ON CONFLICT (user_id) DO NOTHING", id, signupCredits); err != nil {
		slog.Error(err.Error())
		return -1, err
	}

	if err := tx.Commit(dbctx); err != nil {
		slog.Error(err.Error())
		return -1, err
	}
	return id, nil
}
