package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"apicatalog/internal/app"
	"apicatalog/internal/model"
	"apicatalog/internal/transport/http/response"
)

type APIHandler struct {
	catalog *app.CatalogService
	likes   *app.LikeService
}

type CreateAPIRequest struct {
	APIName          string `json:"apiName" binding:"required" msg:"The Api Name is a required field"`
	APICountry       string `json:"apiCountry" binding:"required" msg:"The API Country is a required field"`
	Description      string `json:"description" binding:"required" msg:"The Description is a required field"`
	MainURL          string `json:"mainUrl" binding:"required" msg:"The Main URL is a required field"`
	DocumentationURL string `json:"documentationUrl"`
}

type CreateAPIHeader struct {
	UserID string `header:"user_id" binding:"required" msg:"Can't find any user_id on headers"`
}

type IncrementViewHeader struct {
	APIID string `header:"api_id" binding:"required,number" msg:"The Api Id is a required field"`
}

type IncrementLikesHeader struct {
	UserID string `header:"user_id" binding:"required" msg:"The User Id is a required field"`
	APIID  string `header:"api_id" binding:"required,number" msg:"The Api Id is a required field"`
}

type DecrementLikesHeader struct {
	APIID  string `header:"api_id" binding:"required,number" msg:"Api ID not found on request header"`
	UserID string `header:"user_id" binding:"required" msg:"User ID not found on request header"`
}

func NewAPIHandler(catalog *app.CatalogService, likes *app.LikeService) *APIHandler {
	return &APIHandler{catalog: catalog, likes: likes}
}

func (h *APIHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(app.DefaultPageSize)))

	result, err := h.catalog.List(c.Request.Context(), page, limit)
	if err != nil {
		writeServiceError(c, err, "list apis failed")
		return
	}
	response.OK(c, result)
}

func (h *APIHandler) Pages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(app.DefaultPageSize)))

	pages, total, err := h.catalog.Pages(c.Request.Context(), limit)
	if err != nil {
		writeServiceError(c, err, "count apis failed")
		return
	}
	response.OK(c, gin.H{"pages": pages, "total": total})
}

func (h *APIHandler) ListByIDs(c *gin.Context) {
	raw := strings.TrimSpace(c.Query("ids"))
	var ids []uint
	if raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, ok := parseID(strings.TrimSpace(part))
			if !ok {
				response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "ids must be a comma separated list of api ids")
				return
			}
			ids = append(ids, id)
		}
	}

	entries, err := h.catalog.ListByIDs(c.Request.Context(), ids)
	if err != nil {
		writeServiceError(c, err, "list apis failed")
		return
	}
	if entries == nil {
		entries = []model.APIEntry{}
	}
	response.OK(c, entries)
}

func (h *APIHandler) Create(c *gin.Context) {
	var header CreateAPIHeader
	if !bindHeaders(c, &header) {
		return
	}
	var req CreateAPIRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := actingUser(c, header.UserID)
	if !ok {
		return
	}

	entry, err := h.catalog.Create(c.Request.Context(), app.CreateAPIInput{
		UserID:           userID,
		Name:             req.APIName,
		Country:          req.APICountry,
		Description:      req.Description,
		MainURL:          req.MainURL,
		DocumentationURL: req.DocumentationURL,
	})
	if err != nil {
		writeServiceError(c, err, "create api failed")
		return
	}
	response.OK(c, entry)
}

func (h *APIHandler) IncrementView(c *gin.Context) {
	var header IncrementViewHeader
	if !bindHeaders(c, &header) {
		return
	}
	apiID, ok := parseID(header.APIID)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid api id")
		return
	}

	if err := h.catalog.RecordView(c.Request.Context(), apiID); err != nil {
		writeServiceError(c, err, "increment views failed")
		return
	}
	response.OK(c, gin.H{"api_id": apiID})
}

func (h *APIHandler) IncrementLikes(c *gin.Context) {
	var header IncrementLikesHeader
	if !bindHeaders(c, &header) {
		return
	}
	h.adjustLikes(c, header.UserID, header.APIID, h.likes.Increment, "increment likes failed")
}

func (h *APIHandler) DecrementLikes(c *gin.Context) {
	var header DecrementLikesHeader
	if !bindHeaders(c, &header) {
		return
	}
	h.adjustLikes(c, header.UserID, header.APIID, h.likes.Decrement, "decrement likes failed")
}

type likeFunc func(ctx context.Context, userID, apiID uint) (*app.LikeResult, error)

func (h *APIHandler) adjustLikes(c *gin.Context, claimedUser, rawAPIID string, adjust likeFunc, fallback string) {
	userID, ok := actingUser(c, claimedUser)
	if !ok {
		return
	}
	apiID, ok := parseID(rawAPIID)
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid api id")
		return
	}

	result, err := adjust(c.Request.Context(), userID, apiID)
	if err != nil {
		writeServiceError(c, err, fallback)
		return
	}
	response.OK(c, result)
}

func (h *APIHandler) Delete(c *gin.Context) {
	userID, ok := actingUser(c, "")
	if !ok {
		return
	}
	apiID, ok := parseID(c.Param("api_id"))
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid api id")
		return
	}

	if err := h.catalog.Delete(c.Request.Context(), userID, apiID); err != nil {
		writeServiceError(c, err, "delete api failed")
		return
	}
	response.OK(c, gin.H{"deleted_api_id": apiID})
}
