package services

import (
  "context"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/repos"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

type UserService interface {
  GetByID(ctx context.Context, id uuid.UUID) (*types.User, error)
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
  return &userService{
    db:       db,
    log:      log.With("service", "UserService"),
    userRepo: userRepo,
  }
}

func (us *userService) GetByID(ctx context.Context, id uuid.UUID) (*types.User, error) {
  users, err := us.userRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
  if err != nil {
    return nil, fmt.Errorf("Failed to load user: %w", err)
  }
  if len(users) == 0 {
    return nil, fmt.Errorf("user not found")
  }
  return users[0], nil
}
