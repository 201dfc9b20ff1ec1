package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/Monetiqai/Monetiq-sub003/internal/domain/aggregates"
	"github.com/Monetiqai/Monetiq-sub003/internal/http/response"
)

// statusFor maps an aggregate error code to its HTTP status.
func statusFor(code domainagg.ErrorCode) int {
	switch code {
	case domainagg.CodeValidation, domainagg.CodeInvalidTransition:
		return http.StatusBadRequest
	case domainagg.CodeNotFound:
		return http.StatusNotFound
	case domainagg.CodeForbidden:
		return http.StatusForbidden
	case domainagg.CodeConflict:
		return http.StatusConflict
	case domainagg.CodePreconditionFailed:
		return http.StatusPreconditionFailed
	case domainagg.CodeCollaboratorFailure:
		return http.StatusBadGateway
	case domainagg.CodeRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondDomainError writes the error envelope. Only client-facing codes carry
// the aggregate message; everything else gets a generic one.
func respondDomainError(c *gin.Context, err error) {
	_ = c.Error(err)
	de, ok := domainagg.As(err)
	if !ok {
		response.RespondAPIError(c, http.StatusInternalServerError, response.APIError{Message: "internal error", Code: string(domainagg.CodeInternal)})
		return
	}
	status := statusFor(de.Code)
	apiErr := response.APIError{Code: string(de.Code), Message: de.Message}
	switch de.Code {
	case domainagg.CodeInvalidTransition:
		apiErr.Reason = de.Reason
		apiErr.MissingShots = de.Missing
	case domainagg.CodeCollaboratorFailure:
		apiErr.Message = "upstream generation failed"
	case domainagg.CodeRetryable, domainagg.CodeConflict:
		apiErr.Message = "please retry"
	case domainagg.CodeValidation, domainagg.CodeNotFound, domainagg.CodeForbidden, domainagg.CodePreconditionFailed:
	default:
		apiErr.Code = string(domainagg.CodeInternal)
		apiErr.Message = "internal error"
	}
	response.RespondAPIError(c, status, apiErr)
}

func badRequest(c *gin.Context, msg string) {
	response.RespondAPIError(c, http.StatusBadRequest, response.APIError{Message: msg, Code: string(domainagg.CodeValidation)})
}
