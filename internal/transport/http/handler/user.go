package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"apicatalog/internal/app"
	"apicatalog/internal/transport/http/response"
)

type UserHandler struct {
	users *app.UserService
}

type FollowHeader struct {
	FollowedID string `header:"followed_id" binding:"required,number" msg:"The Followed ID is required"`
	UserID     string `header:"user_id" binding:"required" msg:"The User ID is required"`
}

func NewUserHandler(users *app.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "list users failed")
		return
	}
	out := make([]gin.H, 0, len(users))
	for i := range users {
		out = append(out, userPayload(&users[i]))
	}
	response.OK(c, out)
}

func (h *UserHandler) GetName(c *gin.Context) {
	userID, ok := parseID(c.Param("user_id"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid user id")
		return
	}

	name, err := h.users.GetName(c.Request.Context(), userID)
	if err != nil {
		writeServiceError(c, err, "get user name failed")
		return
	}
	response.OK(c, gin.H{"name": name})
}

func (h *UserHandler) Follow(c *gin.Context) {
	h.follow(c, h.users.Follow, "follow failed")
}

func (h *UserHandler) Unfollow(c *gin.Context) {
	h.follow(c, h.users.Unfollow, "unfollow failed")
}

func (h *UserHandler) follow(c *gin.Context, apply func(ctx context.Context, userID, followedID uint) (*app.FollowResult, error), fallback string) {
	var header FollowHeader
	if !bindHeaders(c, &header) {
		return
	}
	userID, ok := actingUser(c, header.UserID)
	if !ok {
		return
	}
	followedID, ok := parseID(header.FollowedID)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid followed id")
		return
	}

	result, err := apply(c.Request.Context(), userID, followedID)
	if err != nil {
		writeServiceError(c, err, fallback)
		return
	}
	response.OK(c, result)
}

func (h *UserHandler) Delete(c *gin.Context) {
	actorID, ok := actingUser(c, "")
	if !ok {
		return
	}
	userID, ok := parseID(c.Param("user_id"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid user id")
		return
	}

	if err := h.users.Delete(c.Request.Context(), actorID, userID); err != nil {
		writeServiceError(c, err, "delete user failed")
		return
	}
	response.OK(c, gin.H{"deleted_user_id": userID})
}
