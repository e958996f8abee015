package repository

import (
	"context"
	"pajak-web/internal/models"

	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, name, username, email, password_hash, role, is_active, created_at, updated_at"

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, "username", username)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, "email", email)
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*models.User, error) {
	return r.findOne(ctx, "id", id)
}

// findOne looks a user up by one of the unique columns above.
func (r *UserRepository) findOne(ctx context.Context, column string, value interface{}) (*models.User, error) {
	var user models.User
	query := "SELECT " + userColumns + " FROM users WHERE " + column + " = ? LIMIT 1"
	if err := sqlx.GetContext(ctx, GetDB(ctx, r.db), &user, query, value); err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `INSERT INTO users (name, username, email, password_hash, role, is_active)
	          VALUES (:name, :username, :email, :password_hash, :role, :is_active)`
	result, err := sqlx.NamedExecContext(ctx, GetDB(ctx, r.db), query, user)
	if err != nil {
		return err
	}
	id, _ := result.LastInsertId()
	user.ID = int(id)
	return nil
}
