package repository

import (
	"context"
	"fmt"

	"github.com/payoutpilot/mentorchat/internal/domain"
	"github.com/payoutpilot/mentorchat/internal/repository/dao"
)

var (
	ErrUserUIDExists = dao.ErrUserUIDExists
	ErrUserNotFound  = dao.ErrUserNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User) (dao.User, error)
	FindByUID(ctx context.Context, uid string) (dao.User, error)
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		UID:   user.UID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByUID(ctx context.Context, uid string) (domain.User, error) {
	found, err := r.dao.FindByUID(ctx, uid)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByUID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		UID:       u.UID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
