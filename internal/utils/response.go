// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/equipdesk/equipdesk-backend/internal/apperrors"
	"github.com/equipdesk/equipdesk-backend/internal/i18n"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

func SuccessResponseWithMeta(c *gin.Context, data interface{}, meta interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
		Meta:    meta,
	})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyValidationInvalid, "request")
	}
	ErrorResponse(c, http.StatusBadRequest, "BAD_REQUEST", message, details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAuthRequired)
	}
	ErrorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", message, nil)
}

func ForbiddenResponse(c *gin.Context, message string) {
	lang := GetLangFromContext(c)
	if message == "" {
		message = i18n.T(lang, i18n.KeyAdminAccessDenied)
	}
	ErrorResponse(c, http.StatusForbidden, "FORBIDDEN", message, nil)
}

func NotFoundResponse(c *gin.Context, resource string) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, resource+".not_found")
	ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
}

func ConflictResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusConflict, "CONFLICT", message, nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	ErrorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	lang := GetLangFromContext(c)
	message := i18n.T(lang, i18n.KeyValidationInvalid, "input")
	ErrorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", message, errors)
}

// EngineErrorResponse maps typed engine failures onto HTTP statuses. The
// conflict kind carries a retryable hint so clients re-fetch and reapply.
func EngineErrorResponse(c *gin.Context, err error) {
	appErr, ok := apperrors.AsError(err)
	if !ok {
		InternalErrorResponse(c, err.Error())
		return
	}

	details := gin.H{
		"resource": appErr.Resource,
	}
	if appErr.ID != "" {
		details["id"] = appErr.ID
	}

	switch appErr.Kind {
	case apperrors.KindNotFound:
		ErrorResponse(c, http.StatusNotFound, string(appErr.Kind), appErr.Error(), details)
	case apperrors.KindValidation:
		ErrorResponse(c, http.StatusBadRequest, string(appErr.Kind), appErr.Error(), details)
	case apperrors.KindDuplicateActiveAssignment, apperrors.KindAlreadyDecided:
		ErrorResponse(c, http.StatusConflict, string(appErr.Kind), appErr.Error(), details)
	case apperrors.KindSupersedingCycle:
		ErrorResponse(c, http.StatusUnprocessableEntity, string(appErr.Kind), appErr.Error(), details)
	case apperrors.KindConflict:
		details["retryable"] = true
		ErrorResponse(c, http.StatusConflict, string(appErr.Kind), appErr.Error(), details)
	default:
		InternalErrorResponse(c, appErr.Error())
	}
}

func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	SuccessResponseWithMeta(c, result.Data, gin.H{
		"pagination": gin.H{
			"page":        result.Page,
			"limit":       result.Limit,
			"total":       result.Total,
			"total_pages": result.TotalPages,
		},
	})
}

func GetLangFromContext(c *gin.Context) string {
	if lang, exists := c.Get("lang"); exists {
		if langStr, ok := lang.(string); ok {
			return langStr
		}
	}
	return "en"
}

func GetOperatorIDFromContext(c *gin.Context) (string, bool) {
	if operatorID, exists := c.Get("operator_id"); exists {
		if idStr, ok := operatorID.(string); ok {
			return idStr, true
		}
	}
	return "", false
}

func GetOperatorRoleFromContext(c *gin.Context) (string, bool) {
	if role, exists := c.Get("operator_role"); exists {
		if roleStr, ok := role.(string); ok {
			return roleStr, true
		}
	}
	return "", false
}
