package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/assolink/cantine/internal/db"
	"github.com/assolink/cantine/internal/repository"
)

type AssociationRepo struct {
	db db.DB
}

func NewAssociationRepo(db db.DB) *AssociationRepo {
	return &AssociationRepo{db: db}
}

func (r *AssociationRepo) Create(ctx context.Context, name, email, password string) (*repository.Association, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	assoc := &repository.Association{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Password:  string(hashed),
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO associations (id, name, email, password, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, assoc.ID, assoc.Name, assoc.Email, assoc.Password, assoc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert association %s: %w", email, err)
	}
	return assoc, nil
}

func (r *AssociationRepo) GetByID(ctx context.Context, id string) (*repository.Association, error) {
	var assoc repository.Association
	err := r.db.Get(ctx, &assoc, "SELECT * FROM associations WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get association %s: %w", id, err)
	}
	return &assoc, nil
}

func (r *AssociationRepo) GetByEmail(ctx context.Context, email string) (*repository.Association, error) {
	var assoc repository.Association
	err := r.db.Get(ctx, &assoc, "SELECT * FROM associations WHERE email = $1", email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("get association %s: %w", email, err)
	}
	return &assoc, nil
}

// Authenticate returns the association for valid credentials. Unknown email
// and wrong password both come back as ErrNotFound so callers cannot probe
// which accounts exist.
func (r *AssociationRepo) Authenticate(ctx context.Context, email, password string) (*repository.Association, error) {
	assoc, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(assoc.Password), []byte(password)); err != nil {
		return nil, repository.ErrNotFound
	}
	return assoc, nil
}
