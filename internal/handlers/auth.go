package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/heirlooms-backend/internal/services"
  "github.com/yungbote/heirlooms-backend/internal/types"
)

type AuthHandler struct {
  authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
  return &AuthHandler{authService: authService}
}

type registerRequest struct {
  Email     string `json:"email" binding:"required"`
  Password  string `json:"password" binding:"required"`
  FirstName string `json:"first_name"`
  LastName  string `json:"last_name"`
}

// POST /api/register
func (h *AuthHandler) Register(c *gin.Context) {
  var req registerRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  user := &types.User{
    Email:     req.Email,
    Password:  req.Password,
    FirstName: req.FirstName,
    LastName:  req.LastName,
  }
  if err := h.authService.RegisterUser(c.Request.Context(), user); err != nil {
    RespondError(c, http.StatusBadRequest, "registration_failed", err)
    return
  }
  RespondOK(c, gin.H{"id": user.ID})
}

type loginRequest struct {
  Email    string `json:"email" binding:"required"`
  Password string `json:"password" binding:"required"`
}

// POST /api/login
func (h *AuthHandler) Login(c *gin.Context) {
  var req loginRequest
  if err := c.ShouldBindJSON(&req); err != nil {
    RespondError(c, http.StatusBadRequest, "invalid_request", err)
    return
  }
  accessToken, refreshToken, err := h.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "login_failed", err)
    return
  }
  h.setSessionCookie(c, accessToken)
  RespondOK(c, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
  })
}

// POST /refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
  accessToken, refreshToken, err := h.authService.RefreshUser(c.Request.Context())
  if err != nil {
    RespondError(c, http.StatusUnauthorized, "refresh_failed", err)
    return
  }
  h.setSessionCookie(c, accessToken)
  RespondOK(c, gin.H{
    "access_token":  accessToken,
    "refresh_token": refreshToken,
  })
}

// POST /logout
func (h *AuthHandler) Logout(c *gin.Context) {
  if err := h.authService.LogoutUser(c.Request.Context()); err != nil {
    RespondError(c, http.StatusInternalServerError, "logout_failed", errors.New("logout failed"))
    return
  }
  c.SetCookie("token", "", -1, "/", "", false, true)
  RespondOK(c, gin.H{"status": "logged out"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, accessToken string) {
  maxAge := int(h.authService.GetAccessTTL().Seconds())
  c.SetCookie("token", accessToken, maxAge, "/", "", false, true)
}
