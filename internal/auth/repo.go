package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"github.com/comanda-erp/comanda/internal/rbac"
	"github.com/comanda-erp/comanda/internal/shared"
)

// Repository defines persistence operations for auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const findUserByEmail = `SELECT id::text, name, email, role, password_hash, is_active, created_at, updated_at
FROM users WHERE lower(email) = lower($1)`

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var (
		user User
		role string
	)
	err := r.pool.QueryRow(ctx, findUserByEmail, email).Scan(
		&user.ID, &user.Name, &user.Email, &role, &user.PasswordHash, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("auth: find user: %w", err)
	}
	user.Role, err = rbac.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("auth: user %s: %w", user.Email, err)
	}
	return &user, nil
}

// DemoRepository serves the seeded demo accounts from memory. Every account
// shares one credential.
type DemoRepository struct {
	users map[string]User
}

// NewDemoRepository hashes credential and seeds the demo accounts.
func NewDemoRepository(credential string) (*DemoRepository, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash demo credential: %w", err)
	}
	now := time.Now().UTC()
	users := make(map[string]User)
	for _, demo := range DemoUsers() {
		users[strings.ToLower(demo.Email)] = User{
			ID:           demo.ID,
			Name:         demo.Name,
			Email:        demo.Email,
			Role:         demo.Role,
			PasswordHash: string(hash),
			IsActive:     true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	}
	return &DemoRepository{users: users}, nil
}

// FindByEmail looks up a demo account.
func (r *DemoRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	user, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &user, nil
}

var (
	_ Repository = (*PGRepository)(nil)
	_ Repository = (*DemoRepository)(nil)
)
