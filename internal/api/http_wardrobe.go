package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"wardrobe/internal/entity/dto"
	"wardrobe/internal/service"
	"wardrobe/internal/utils"
	"wardrobe/internal/vision"
	"wardrobe/internal/wardrobe"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Upload 接收衣物照片，抠图并分类后存入衣橱
func (h *HTTPHandler) Upload(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	maxBytes := int64(h.cfg.MaxUploadMB) << 20
	if maxBytes <= 0 {
		maxBytes = 16 << 20
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(c, http.StatusRequestEntityTooLarge, ErrCodeInvalidRequest, "image is too large")
			return
		}
		MissingField(c, "image")
		return
	}
	if strings.TrimSpace(fileHeader.Filename) == "" {
		BadRequest(c, ErrCodeMissingField, "No selected file")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		InternalErrorWithCause(c, ErrCodeInternalError, "failed to read upload", err)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		InternalErrorWithCause(c, ErrCodeInternalError, "failed to read upload", err)
		return
	}

	result, err := h.wardrobeService.ClassifyAndStore(c.Request.Context(), user.UID, fileHeader.Filename, data)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"uid":      user.UID,
			"filename": fileHeader.Filename,
		}).Warn("upload failed")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UploadResponse{
		Message:        "Image uploaded and processed successfully",
		URL:            result.URL,
		PredictedClass: string(result.Category),
		Color:          string(result.Color),
	})
}

// MixMatch 以选中衣物的颜色生成一套新搭配
func (h *HTTPHandler) MixMatch(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	filename := strings.TrimSpace(c.Query("filename"))
	if filename == "" {
		MissingField(c, "filename")
		return
	}

	collection, err := h.wardrobeService.MixMatch(c.Request.Context(), user.UID, filename)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"uid":      user.UID,
			"filename": filename,
		}).Warn("mix-match failed")
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": gin.H{"code": http.StatusOK, "message": "Success"},
		"data": dto.MixMatchData{
			Outfits:    collection.Images,
			Collection: collection.Number,
			Color:      string(collection.Color),
		},
	})
}

// GetOutfits 返回第 n 个搭配集合中的图片
func (h *HTTPHandler) GetOutfits(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	n, err := strconv.Atoi(c.Param("number"))
	if err != nil || n < 1 {
		BadRequest(c, ErrCodeInvalidRequest, "collection number must be a positive integer")
		return
	}

	collection, err := h.wardrobeService.GetOutfitCollection(c.Request.Context(), user.UID, n)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": gin.H{"code": http.StatusOK, "message": "Success"},
		"data": dto.MixMatchData{
			Outfits:    collection.Images,
			Collection: collection.Number,
			Color:      string(collection.Color),
		},
	})
}

// ListClothes 分页查询衣橱
func (h *HTTPHandler) ListClothes(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var query dto.ItemQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		InvalidPayload(c)
		return
	}
	query.UserUID = user.UID

	resp, err := h.wardrobeService.ListItems(c.Request.Context(), &query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListOutfitSets 分页查询历史搭配
func (h *HTTPHandler) ListOutfitSets(c *gin.Context) {
	user := CurrentUser(c)
	if user == nil {
		Unauthorized(c, "authentication required")
		return
	}

	var query dto.OutfitSetQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		InvalidPayload(c)
		return
	}
	query.UserUID = user.UID

	resp, err := h.wardrobeService.ListOutfitSets(c.Request.Context(), &query)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// respondServiceError 将服务层错误映射为 HTTP 响应
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFilename):
		MissingField(c, "filename")
	case errors.Is(err, utils.ErrNotImage), errors.Is(err, vision.ErrUnsupportedImage):
		BadRequest(c, ErrCodeUnsupportedImage, err.Error())
	case errors.Is(err, wardrobe.ErrInvalidFilename):
		BadRequest(c, ErrCodeInvalidFilename, err.Error())
	case errors.Is(err, service.ErrInvalidUID):
		BadRequest(c, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, service.ErrItemNotFound):
		NotFound(c, ErrCodeItemNotFound, err.Error())
	case errors.Is(err, service.ErrNoOutfits):
		NotFound(c, ErrCodeNoOutfits, err.Error())
	case errors.Is(err, service.ErrCollectionNotFound):
		NotFound(c, ErrCodeCollectionNotFound, err.Error())
	case errors.Is(err, service.ErrClassification):
		InternalErrorWithCause(c, ErrCodeClassificationError, "failed to classify image", err)
	default:
		InternalErrorWithCause(c, ErrCodeInternalError, "internal error", err)
	}
}
