package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/requestdata"
  "github.com/pathforge/pathforge-backend/internal/types"
  "github.com/pathforge/pathforge-backend/internal/utils"
)

type RegisterInput struct {
  Email    string `json:"email"`
  Username string `json:"username"`
  Password string `json:"password"`
}

type AuthService interface {
  Register(ctx context.Context, input RegisterInput) (*types.User, error)
  Login(ctx context.Context, email, password string) (string, string, error)
  Refresh(ctx context.Context, refreshToken string) (string, string, error)
  Logout(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  AccessTTL() time.Duration
}

type authService struct {
  db            *gorm.DB
  log           *logger.Logger
  userRepo      repos.UserRepo
  userTokenRepo repos.UserTokenRepo
  jwtSecretKey  string
  accessTTL     time.Duration
  refreshTTL    time.Duration
}

func NewAuthService(
  db *gorm.DB,
  baseLog *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  return &authService{
    db:            db,
    log:           baseLog.With("service", "AuthService"),
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) Register(ctx context.Context, input RegisterInput) (*types.User, error) {
  email := strings.TrimSpace(strings.ToLower(input.Email))
  username := strings.TrimSpace(input.Username)
  if email == "" || username == "" || input.Password == "" {
    return nil, apierr.InvalidArgument("missing_fields", "email, username and password are required")
  }

  if existing, err := as.userRepo.GetByEmail(ctx, nil, email); err != nil {
    return nil, apierr.Internal("load_user", "load user by email: %v", err)
  } else if existing != nil {
    return nil, apierr.Conflict("email_taken", "email already exists")
  }
  if existing, err := as.userRepo.GetByUsername(ctx, nil, username); err != nil {
    return nil, apierr.Internal("load_user", "load user by username: %v", err)
  } else if existing != nil {
    return nil, apierr.Conflict("username_taken", "username already exists")
  }

  hashed, err := utils.HashPassword(input.Password)
  if err != nil {
    return nil, apierr.InvalidArgument("invalid_password", "%v", err)
  }

  user := &types.User{
    Email:    email,
    Username: username,
    Password: hashed,
  }
  created, err := as.userRepo.Create(ctx, nil, user)
  if err != nil {
    as.log.Error("Register failed", "error", err)
    return nil, apierr.Internal("create_user", "create user: %v", err)
  }
  return created, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
  email = strings.TrimSpace(strings.ToLower(email))
  user, err := as.userRepo.GetByEmail(ctx, nil, email)
  if err != nil {
    return "", "", apierr.Internal("load_user", "load user by email: %v", err)
  }
  if user == nil {
    return "", "", fmt.Errorf("invalid email or password")
  }
  if err := utils.CheckPassword(user.Password, password); err != nil {
    return "", "", fmt.Errorf("invalid email or password")
  }

  var accessToken, refreshToken string
  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if err := as.userTokenRepo.DeleteExpired(ctx, tx, user.ID); err != nil {
      return fmt.Errorf("delete expired tokens: %w", err)
    }
    accessToken, err = as.generateAccessToken(user.ID)
    if err != nil {
      return fmt.Errorf("generate access token: %w", err)
    }
    refreshToken = uuid.New().String()
    _, err = as.userTokenRepo.Create(ctx, tx, &types.UserToken{
      UserID:       user.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    })
    if err != nil {
      return fmt.Errorf("create user token: %w", err)
    }
    return nil
  })
  if err != nil {
    as.log.Warn("Login failed", "error", err, "user_id", user.ID)
    return "", "", err
  }
  return accessToken, refreshToken, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
  if strings.TrimSpace(refreshToken) == "" {
    return "", "", fmt.Errorf("missing refresh token")
  }
  token, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
  if err != nil {
    return "", "", apierr.Internal("load_token", "load refresh token: %v", err)
  }
  if token == nil {
    return "", "", fmt.Errorf("invalid refresh token")
  }
  if token.ExpiresAt.Before(time.Now()) {
    _ = as.userTokenRepo.DeleteByUserID(ctx, nil, token.UserID)
    return "", "", fmt.Errorf("refresh token expired")
  }

  var accessToken, newRefreshToken string
  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    if err := as.userTokenRepo.DeleteByUserID(ctx, tx, token.UserID); err != nil {
      return fmt.Errorf("rotate token: %w", err)
    }
    accessToken, err = as.generateAccessToken(token.UserID)
    if err != nil {
      return fmt.Errorf("generate access token: %w", err)
    }
    newRefreshToken = uuid.New().String()
    _, err = as.userTokenRepo.Create(ctx, tx, &types.UserToken{
      UserID:       token.UserID,
      AccessToken:  accessToken,
      RefreshToken: newRefreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    })
    if err != nil {
      return fmt.Errorf("create user token: %w", err)
    }
    return nil
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil || rd.UserID == uuid.Nil {
    return fmt.Errorf("not authenticated")
  }
  return as.userTokenRepo.DeleteByUserID(ctx, nil, rd.UserID)
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  claims := &jwt.RegisteredClaims{}
  token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
    if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
      return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
    }
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil || !token.Valid {
    return ctx, fmt.Errorf("invalid or expired token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("invalid token subject")
  }
  return requestdata.WithRequestData(ctx, &requestdata.RequestData{
    TokenString: tokenString,
    UserID:      userID,
  }), nil
}

func (as *authService) AccessTTL() time.Duration {
  return as.accessTTL
}

func (as *authService) generateAccessToken(userID uuid.UUID) (string, error) {
  now := time.Now()
  claims := jwt.RegisteredClaims{
    Subject:   userID.String(),
    IssuedAt:  jwt.NewNumericDate(now),
    ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}
