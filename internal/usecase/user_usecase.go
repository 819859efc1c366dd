package usecase

import (
	"context"
	"strings"

	"github.com/DRSN-tech/shop-backend/internal/domain"
	"github.com/DRSN-tech/shop-backend/pkg/e"
	"github.com/DRSN-tech/shop-backend/pkg/logger"
	"golang.org/x/crypto/bcrypt"
)

// UserUseCase реализует регистрацию и чтение пользователей.
type UserUseCase struct {
	userRepo UserRepository
	logger   logger.Logger
}

func NewUserUC(userRepo UserRepository, logger logger.Logger) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register создаёт пользователя с уникальным email.
// Пароль хранится только в виде bcrypt-хэша.
func (u *UserUseCase) Register(ctx context.Context, req *RegisterUserReq) (*UserInfo, error) {
	const op = "UserUseCase.Register"

	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		req.Password == "" {
		return nil, e.Wrap(op, e.ErrMissingFields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	user, err := u.userRepo.Create(ctx, domain.NewUser(req.Name, req.Email, string(hash)))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewUserInfo(user), nil
}

// ListUsers возвращает всех пользователей.
func (u *UserUseCase) ListUsers(ctx context.Context) ([]UserInfo, error) {
	const op = "UserUseCase.ListUsers"

	users, err := u.userRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	result := make([]UserInfo, 0, len(users))
	for i := range users {
		result = append(result, *NewUserInfo(&users[i]))
	}

	return result, nil
}
