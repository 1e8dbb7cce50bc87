package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/golang-jwt/jwt/v5"
  "github.com/google/uuid"
  "golang.org/x/crypto/bcrypt"
  "gorm.io/gorm"

  "github.com/yungbote/heirlooms-backend/internal/logger"
  "github.com/yungbote/heirlooms-backend/internal/repos"
  "github.com/yungbote/heirlooms-backend/internal/requestdata"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

type JWTClaims struct {
  jwt.RegisteredClaims
}

type AuthService interface {
  RegisterUser(ctx context.Context, user *types.User) error
  LoginUser(ctx context.Context, email, password string) (string, string, error)
  RefreshUser(ctx context.Context) (string, string, error)
  LogoutUser(ctx context.Context) error
  SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
  GetAccessTTL() time.Duration
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
  log *logger.Logger,
  userRepo repos.UserRepo,
  userTokenRepo repos.UserTokenRepo,
  jwtSecretKey string,
  accessTTL time.Duration,
  refreshTTL time.Duration,
) AuthService {
  return &authService{
    db:            db,
    log:           log.With("service", "AuthService"),
    userRepo:      userRepo,
    userTokenRepo: userTokenRepo,
    jwtSecretKey:  jwtSecretKey,
    accessTTL:     accessTTL,
    refreshTTL:    refreshTTL,
  }
}

func (as *authService) RegisterUser(ctx context.Context, user *types.User) error {
  user.Email = strings.ToLower(strings.TrimSpace(user.Email))
  if user.Email == "" {
    return fmt.Errorf("email is required")
  }
  if len(user.Password) < 8 {
    return fmt.Errorf("password must be at least 8 characters")
  }
  existing, err := as.userRepo.GetByEmails(ctx, nil, []string{user.Email})
  if err != nil {
    return fmt.Errorf("Failed to check existing users: %w", err)
  }
  if len(existing) > 0 {
    return fmt.Errorf("email already registered")
  }
  hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
  if err != nil {
    return fmt.Errorf("Failed to hash password: %w", err)
  }
  user.Password = string(hashed)
  user.ID = uuid.New()
  if _, err := as.userRepo.Create(ctx, nil, []*types.User{user}); err != nil {
    return fmt.Errorf("Failed to create user: %w", err)
  }
  return nil
}

func (as *authService) LoginUser(ctx context.Context, email, password string) (string, string, error) {
  email = strings.ToLower(strings.TrimSpace(email))
  users, err := as.userRepo.GetByEmails(ctx, nil, []string{email})
  if err != nil {
    return "", "", fmt.Errorf("Error retrieving user by email: %w", err)
  }
  if len(users) == 0 {
    return "", "", fmt.Errorf("Invalid email or password")
  }
  user := users[0]
  if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
    return "", "", fmt.Errorf("Invalid email or password")
  }

  var accessToken string
  var refreshToken string
  err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    stale, ftErr := as.userTokenRepo.GetByUserIDs(ctx, tx, []uuid.UUID{user.ID})
    if ftErr != nil {
      return fmt.Errorf("Failed to check user tokens: %w", ftErr)
    }
    expiredIDs := []uuid.UUID{}
    for _, t := range stale {
      if t.ExpiresAt.Before(time.Now()) {
        expiredIDs = append(expiredIDs, t.ID)
      }
    }
    if len(expiredIDs) > 0 {
      if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, expiredIDs); dErr != nil {
        return fmt.Errorf("Failed to delete expired user tokens: %w", dErr)
      }
    }

    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("Failed to generate access token: %w", genErr)
    }
    accessToken = tok
    refreshToken = uuid.New().String()
    userToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  accessToken,
      RefreshToken: refreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&userToken}); cErr != nil {
      return fmt.Errorf("Failed to create user token: %w", cErr)
    }
    return nil
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, refreshToken, nil
}

func (as *authService) RefreshUser(ctx context.Context) (string, string, error) {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return "", "", fmt.Errorf("No request data found in context")
  }
  if rd.RefreshToken == "" {
    return "", "", fmt.Errorf("Refresh token not found in request data")
  }

  var accessToken string
  var newRefreshToken string
  err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    found, ftErr := as.userTokenRepo.GetByRefreshTokens(ctx, tx, []string{rd.RefreshToken})
    if ftErr != nil {
      return fmt.Errorf("Error fetching refresh token: %w", ftErr)
    }
    if len(found) == 0 {
      return fmt.Errorf("Unknown refresh token")
    }
    existing := found[0]
    if existing.ExpiresAt.Before(time.Now()) {
      if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
        return fmt.Errorf("Refresh token expired, error deleting: %w", dErr)
      }
      return fmt.Errorf("Refresh token expired")
    }
    users, uErr := as.userRepo.GetByIDs(ctx, tx, []uuid.UUID{existing.UserID})
    if uErr != nil {
      return fmt.Errorf("Failed to load user for refresh: %w", uErr)
    }
    if len(users) == 0 {
      return fmt.Errorf("No user found for the given refresh token")
    }
    user := users[0]

    tok, genErr := as.generateAccessToken(user)
    if genErr != nil {
      return fmt.Errorf("Failed to generate new access token: %w", genErr)
    }
    accessToken = tok
    newRefreshToken = uuid.New().String()
    newUserToken := types.UserToken{
      ID:           uuid.New(),
      UserID:       user.ID,
      AccessToken:  tok,
      RefreshToken: newRefreshToken,
      ExpiresAt:    time.Now().Add(as.refreshTTL),
    }
    if _, cErr := as.userTokenRepo.Create(ctx, tx, []*types.UserToken{&newUserToken}); cErr != nil {
      return fmt.Errorf("Failed to create new user token: %w", cErr)
    }
    if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
      return fmt.Errorf("Failed to remove old refresh token: %w", dErr)
    }
    return nil
  })
  if err != nil {
    return "", "", err
  }
  return accessToken, newRefreshToken, nil
}

func (as *authService) LogoutUser(ctx context.Context) error {
  rd := requestdata.GetRequestData(ctx)
  if rd == nil {
    return fmt.Errorf("No request data found in context")
  }
  if rd.TokenString == "" {
    return fmt.Errorf("Access token not found in request data")
  }
  return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
    found, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, tx, []string{rd.TokenString})
    if ftErr != nil {
      return fmt.Errorf("Error finding user token: %w", ftErr)
    }
    if len(found) == 0 {
      return nil
    }
    if dErr := as.userTokenRepo.FullDeleteByIDs(ctx, tx, []uuid.UUID{found[0].ID}); dErr != nil {
      return fmt.Errorf("Error deleting user token: %w", dErr)
    }
    return nil
  })
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
  claims := JWTClaims{
    RegisteredClaims: jwt.RegisteredClaims{
      Subject:   user.ID.String(),
      ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
      IssuedAt:  jwt.NewNumericDate(time.Now()),
    },
  }
  token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
  return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
  if tokenString == "" {
    return ctx, fmt.Errorf("missing token")
  }
  parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
    return []byte(as.jwtSecretKey), nil
  })
  if err != nil {
    return ctx, fmt.Errorf("Failed to parse token: %w", err)
  }
  claims, ok := parsedToken.Claims.(*JWTClaims)
  if !ok || !parsedToken.Valid {
    return ctx, fmt.Errorf("Invalid or expired token")
  }
  userID, err := uuid.Parse(claims.Subject)
  if err != nil {
    return ctx, fmt.Errorf("Invalid user id in token: %w", err)
  }

  var refreshToken string
  found, ftErr := as.userTokenRepo.GetByAccessTokens(ctx, nil, []string{tokenString})
  if ftErr != nil {
    return ctx, fmt.Errorf("Failed to fetch user token: %w", ftErr)
  }
  if len(found) > 0 {
    refreshToken = found[0].RefreshToken
  }

  rd := &requestdata.RequestData{
    TokenString:  tokenString,
    RefreshToken: refreshToken,
    UserID:       userID,
  }
  return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration {
  return as.accessTTL
}
