package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"apicatalog/internal/app"
	"apicatalog/internal/logging"
	"apicatalog/internal/transport/http/middleware"
	"apicatalog/internal/transport/http/response"
)

const defaultBindMessage = "invalid request payload"

// bindHeaders and bindJSON reject a request before it reaches a service. The
// message sent back is the `msg` tag of the first failing field.
func bindHeaders(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindHeader(req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, bindMessage(req, err))
		return false
	}
	return true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, bindMessage(req, err))
		return false
	}
	return true
}

func bindMessage(req interface{}, err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return defaultBindMessage
	}
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if field, ok := t.FieldByName(verrs[0].StructField()); ok {
		if msg := field.Tag.Get("msg"); msg != "" {
			return msg
		}
	}
	return defaultBindMessage
}

func parseID(raw string) (uint, bool) {
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

// actingUser returns the authenticated user id and, when claimed is non-empty,
// checks it names the same user.
func actingUser(c *gin.Context, claimed string) (uint, bool) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return 0, false
	}
	if claimed != "" {
		id, valid := parseID(claimed)
		if !valid {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid user id")
			return 0, false
		}
		if id != userID {
			response.Error(c, http.StatusForbidden, response.CodeForbidden, "user id does not match token")
			return 0, false
		}
	}
	return userID, true
}

// writeServiceError maps service sentinels onto the response envelope.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidURL):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrEmailExists):
		response.Error(c, http.StatusBadRequest, response.CodeEmailExists, err.Error())
	case errors.Is(err, app.ErrPasswordMismatch):
		response.Error(c, http.StatusBadRequest, response.CodePasswordMismatch, err.Error())
	case errors.Is(err, app.ErrSelfFollow):
		response.Error(c, http.StatusBadRequest, response.CodeSelfFollow, err.Error())
	case errors.Is(err, app.ErrInvalidCredential):
		response.Error(c, http.StatusUnauthorized, response.CodeInvalidCredentials, err.Error())
	case errors.Is(err, app.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.CodeForbidden, err.Error())
	case errors.Is(err, app.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.CodeUserNotFound, err.Error())
	case errors.Is(err, app.ErrAPINotFound):
		response.Error(c, http.StatusNotFound, response.CodeAPINotFound, err.Error())
	default:
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg(fallback)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
