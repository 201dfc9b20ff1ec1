package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message      string   `json:"message"`
	Code         string   `json:"code,omitempty"`
	Reason       string   `json:"reason,omitempty"`
	MissingShots []string `json:"missingShots,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondAPIError(c *gin.Context, status int, apiErr APIError) {
	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: apiErr})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
