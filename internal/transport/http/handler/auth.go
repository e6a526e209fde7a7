package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"apicatalog/internal/app"
	"apicatalog/internal/model"
	"apicatalog/internal/transport/http/middleware"
	"apicatalog/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Name            string `json:"name" binding:"required" msg:"The Name is a required field"`
	Email           string `json:"email" binding:"required,email" msg:"The Email is a required field"`
	Password        string `json:"password" binding:"required" msg:"The Password is a required field"`
	ConfirmPassword string `json:"confirmPassword" binding:"required" msg:"The Confirm Password is a required field"`
	Country         string `json:"country" binding:"required" msg:"The Country is a required field"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" msg:"The Email is a required field"`
	Password string `json:"password" binding:"required" msg:"The Password is a required field"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		Country:         req.Country,
	})
	if err != nil {
		writeServiceError(c, err, "register failed")
		return
	}

	response.OK(c, authPayload(result))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(c, err, "login failed")
		return
	}

	response.OK(c, authPayload(result))
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "fetch current user failed")
		return
	}
	if user == nil {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "user not found")
		return
	}

	response.OK(c, userPayload(user))
}

func authPayload(result *app.AuthResult) gin.H {
	liked := result.LikedAPIs
	if liked == nil {
		liked = []uint{}
	}
	return gin.H{
		"token":      result.Token,
		"user":       userPayload(result.User),
		"liked_apis": liked,
	}
}

func userPayload(user *model.User) gin.H {
	return gin.H{
		"id":      user.ID,
		"name":    user.Name,
		"email":   user.Email,
		"country": user.Country,
	}
}
