package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Detail string `json:"detail"`
}

func RespondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, ErrorResponse{Detail: err.Error()})
}

func RespondDetail(c *gin.Context, code int, detail string) {
	c.JSON(code, ErrorResponse{Detail: detail})
}

func RespondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// RespondValidation writes field-keyed validation errors as a 400.
func RespondValidation(c *gin.Context, errs interface{}) {
	c.JSON(http.StatusBadRequest, errs)
}
