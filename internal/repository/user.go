package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/svco/mentoring-server-go/internal/model"
)

// User and mentor identities are owned elsewhere; the lifecycle only needs
// to resolve them for notice recipients and SMS phone numbers.

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

type userRepo struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepo{db: db}
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := r.db.GetContext(ctx, &u, `SELECT * FROM users WHERE id = $1`, id)
	return HandleNotFound(&u, err)
}

type MentorRepository interface {
	FindByID(ctx context.Context, id string) (*model.Mentor, error)
}

type mentorRepo struct {
	db *sqlx.DB
}

func NewMentorRepository(db *sqlx.DB) MentorRepository {
	return &mentorRepo{db: db}
}

func (r *mentorRepo) FindByID(ctx context.Context, id string) (*model.Mentor, error) {
	var m model.Mentor
	err := r.db.GetContext(ctx, &m, `
		SELECT m.id, m.user_id, m.name, m.created_at,
			u.id AS "user.id",
			u.full_name AS "user.full_name",
			u.email AS "user.email",
			u.phone AS "user.phone",
			u.created_at AS "user.created_at"
		FROM mentors m
		JOIN users u ON u.id = m.user_id
		WHERE m.id = $1
	`, id)
	return HandleNotFound(&m, err)
}
