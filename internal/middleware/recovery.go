package middleware

import (
	"askpdf-ai/internal/apis/dtos"
	"fmt"
	"log"
	"runtime/debug"

	"github.com/gin-gonic/gin"
)

// CustomRecoveryMiddleware handles panics and returns the standard response envelope
func CustomRecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Recovery from panic: %v\nStack Trace:\n%s", err, string(debug.Stack()))

				errorMsg := "Internal Server Error"
				if gin.IsDebugging() {
					errorMsg = fmt.Sprintf("Internal Server Error: %v", err)
				}

				c.AbortWithStatusJSON(500, dtos.Response{
					Success: false,
					Error:   &errorMsg,
				})
			}
		}()
		c.Next()
	}
}
