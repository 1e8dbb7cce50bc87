package handlers

import (
  "errors"
  "net/http"

  "github.com/gin-gonic/gin"

  "github.com/yungbote/heirlooms-backend/internal/requestdata"
  "github.com/yungbote/heirlooms-backend/internal/services"
)

type UserHandler struct {
  userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
  return &UserHandler{userService: userService}
}

// GET /user
func (h *UserHandler) GetMe(c *gin.Context) {
  rd := requestdata.GetRequestData(c.Request.Context())
  if rd == nil {
    RespondError(c, http.StatusUnauthorized, "unauthorized", errors.New("Unauthorized"))
    return
  }
  user, err := h.userService.GetByID(c.Request.Context(), rd.UserID)
  if err != nil {
    RespondError(c, http.StatusNotFound, "user_not_found", err)
    return
  }
  RespondOK(c, user)
}
