package services

import (
  "context"

  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/requestdata"
  "github.com/pathforge/pathforge-backend/internal/types"
)

type UserService interface {
  GetMe(ctx context.Context) (*types.User, error)
}

type userService struct {
  db       *gorm.DB
  log      *logger.Logger
  userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, baseLog *logger.Logger, userRepo repos.UserRepo) UserService {
  return &userService{
    db:       db,
    log:      baseLog.With("service", "UserService"),
    userRepo: userRepo,
  }
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return nil, apierr.InvalidArgument("missing_request_data", "request data not set in context")
  }
  user, err := us.userRepo.GetByID(ctx, nil, rd.UserID)
  if err != nil {
    return nil, apierr.Internal("load_user", "load user: %v", err)
  }
  if user == nil {
    return nil, apierr.NotFound("user_not_found", "User not found")
  }
  return user, nil
}
