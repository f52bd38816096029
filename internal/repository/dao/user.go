package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserUIDExists = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	UID   string `gorm:"uniqueIndex;not null"`
	Email string `gorm:"not null"`
	Role  string `gorm:"not null"` // "admin", "edtech", or "mentor"

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User) (User, error) {
	result := d.db.WithContext(ctx).Create(&user)
	if result.Error != nil {
		var err *pgconn.PgError
		if errors.As(result.Error, &err) &&
			err.Code == pgerrcode.UniqueViolation &&
			strings.Contains(err.Message, "uid") {
			return User{}, ErrUserUIDExists
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByUID(ctx context.Context, uid string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "uid = ?", uid)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}
