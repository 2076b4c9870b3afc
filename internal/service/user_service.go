package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/dto"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/model"
	"github.com/debranko/obedio-yacht-crew-management-sub004/internal/repository"
)

// UserService login accounts
type UserService interface {
	CreateUser(ctx context.Context, req *dto.CreateUserRequest) (*dto.UserResponse, error)
	GetByID(ctx context.Context, id string) (*dto.UserResponse, error)
	List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error)
	ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error
}

type userService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo *repository.Repository, logger *zap.Logger) UserService {
	return &userService{repo: repo, logger: logger}
}

// ────────────────────── CreateUser ──────────────────────

func (s *userService) CreateUser(ctx context.Context, req *dto.CreateUserRequest) (resp *dto.UserResponse, err error) {
	role, err := model.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if _, err := s.repo.User.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !isNotFound(err) {
		s.logger.Error("check username failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return nil, persistenceErr(err)
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
		if err != nil && tx != nil {
			tx.Rollback()
		}
	}()
	txRepo := s.repo.WithTx(tx)

	user := &model.User{
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         role,
	}
	if err = txRepo.User.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		s.logger.Error("create user failed", zap.Error(err))
		return nil, persistenceErr(err)
	}

	// ── optional crew profile link ──
	if req.CrewMemberID != "" {
		crew, lerr := txRepo.CrewMember.GetByID(ctx, req.CrewMemberID)
		if lerr != nil {
			if isNotFound(lerr) {
				err = ErrCrewNotFound
				return nil, err
			}
			err = persistenceErr(lerr)
			return nil, err
		}
		if crew.UserID != nil {
			err = validationErr("crew member %s already has an account", crew.CrewMemberID)
			return nil, err
		}
		crew.UserID = &user.UserID
		if uerr := txRepo.CrewMember.Update(ctx, crew); uerr != nil {
			err = persistenceErr(uerr)
			return nil, err
		}
		user.CrewMember = crew
	}

	if tx != nil {
		if err = tx.Commit().Error; err != nil {
			return nil, persistenceErr(err)
		}
	}

	s.logger.Info("user created", zap.String("user_id", user.UserID), zap.String("role", string(role)))
	r := toUserResponse(user)
	return &r, nil
}

// ────────────────────── GetByID / List ──────────────────────

func (s *userService) GetByID(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := s.repo.User.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, persistenceErr(err)
	}
	r := toUserResponse(user)
	return &r, nil
}

func (s *userService) List(ctx context.Context, req *dto.UserListRequest) ([]dto.UserResponse, int64, error) {
	users, total, err := s.repo.User.List(ctx, req.GetOffset(), req.GetPageSize())
	if err != nil {
		s.logger.Error("list users failed", zap.Error(err))
		return nil, 0, persistenceErr(err)
	}
	result := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		result = append(result, toUserResponse(&users[i]))
	}
	return result, total, nil
}

// ────────────────────── ChangePassword ──────────────────────

func (s *userService) ChangePassword(ctx context.Context, userID string, req *dto.ChangePasswordRequest) error {
	user, err := s.repo.User.GetByID(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return persistenceErr(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.User.UpdatePassword(ctx, user.UserID, string(hash)); err != nil {
		s.logger.Error("update password failed", zap.String("user_id", userID), zap.Error(err))
		return persistenceErr(err)
	}
	return nil
}

func toUserResponse(u *model.User) dto.UserResponse {
	resp := dto.UserResponse{
		ID:        u.UserID,
		Username:  u.Username,
		Role:      string(u.Role),
		CreatedAt: dto.FormatTime(&u.CreatedAt),
	}
	if u.CrewMember != nil {
		resp.CrewMemberID = u.CrewMember.CrewMemberID
		resp.CrewName = u.CrewMember.Name
	}
	return resp
}
