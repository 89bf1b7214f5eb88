package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// 客户端按 code 分支处理，错误码必须唯一且稳定
func TestErrorCodesUnique(t *testing.T) {
	codes := []string{
		ErrCodeInvalidRequest, ErrCodeUnauthorized, ErrCodeNotFound, ErrCodeInternalError, ErrCodeServiceUnavailable,
		ErrCodeTokenMissing, ErrCodeInvalidCredentials, ErrCodeEmailExists, ErrCodeUserDisabled, ErrCodeUserNotFound, ErrCodeSessionExpired,
		ErrCodeMissingField, ErrCodeUnsupportedImage, ErrCodeInvalidFilename, ErrCodeItemNotFound, ErrCodeNoOutfits,
		ErrCodeCollectionNotFound, ErrCodeClassificationError,
	}
	seen := make(map[string]bool, len(codes))
	for _, code := range codes {
		if !strings.HasPrefix(code, "ERR_") {
			t.Errorf("code %s should start with ERR_", code)
		}
		if seen[code] {
			t.Errorf("duplicate code %s", code)
		}
		seen[code] = true
	}
}

func TestErrorHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		write       func(c *gin.Context)
		wantStatus  int
		wantCode    string
		wantMessage string
		wantDetails map[string]string
	}{
		{
			name:        "missing image field",
			write:       func(c *gin.Context) { MissingField(c, "image") },
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrCodeMissingField,
			wantMessage: "image is required",
			wantDetails: map[string]string{"field": "image"},
		},
		{
			name:        "unsupported image",
			write:       func(c *gin.Context) { BadRequest(c, ErrCodeUnsupportedImage, "file is not a supported image") },
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrCodeUnsupportedImage,
			wantMessage: "file is not a supported image",
		},
		{
			name:        "collection missing",
			write:       func(c *gin.Context) { NotFound(c, ErrCodeCollectionNotFound, "outfit collection not found") },
			wantStatus:  http.StatusNotFound,
			wantCode:    ErrCodeCollectionNotFound,
			wantMessage: "outfit collection not found",
		},
		{
			name:        "classification failure keeps cause",
			write:       func(c *gin.Context) { InternalErrorWithCause(c, ErrCodeClassificationError, "classification failed", errors.New("rembg down")) },
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeClassificationError,
			wantMessage: "classification failed",
			wantDetails: map[string]string{"error": "rembg down"},
		},
		{
			name:        "unauthorized",
			write:       func(c *gin.Context) { Unauthorized(c, "login required") },
			wantStatus:  http.StatusUnauthorized,
			wantCode:    ErrCodeUnauthorized,
			wantMessage: "login required",
		},
		{
			name:        "no database",
			write:       func(c *gin.Context) { ServiceUnavailable(c, "user store is not configured") },
			wantStatus:  http.StatusServiceUnavailable,
			wantCode:    ErrCodeServiceUnavailable,
			wantMessage: "user store is not configured",
		},
		{
			name:        "bad payload",
			write:       InvalidPayload,
			wantStatus:  http.StatusBadRequest,
			wantCode:    ErrCodeInvalidRequest,
			wantMessage: "invalid request payload",
		},
		{
			name:        "internal",
			write:       func(c *gin.Context) { InternalError(c, "failed to register user") },
			wantStatus:  http.StatusInternalServerError,
			wantCode:    ErrCodeInternalError,
			wantMessage: "failed to register user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.write(c)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var response struct {
				Code    string            `json:"code"`
				Message string            `json:"message"`
				Details map[string]string `json:"details"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if response.Code != tt.wantCode || response.Message != tt.wantMessage {
				t.Fatalf("expected %s %q, got %s %q", tt.wantCode, tt.wantMessage, response.Code, response.Message)
			}
			if len(tt.wantDetails) == 0 {
				if strings.Contains(w.Body.String(), `"details"`) {
					t.Fatalf("details should be omitted, got %s", w.Body.String())
				}
				return
			}
			for k, v := range tt.wantDetails {
				if response.Details[k] != v {
					t.Fatalf("expected details[%s]=%q, got %v", k, v, response.Details)
				}
			}
		})
	}
}
