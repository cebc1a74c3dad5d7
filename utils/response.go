package utils

import "github.com/gin-gonic/gin"

// Fail writes an error response. The `detail` field name is what the upload
// front-end displays, so it stays stable across handlers.
func Fail(ctx *gin.Context, status int, detail string) {
	ctx.JSON(status, gin.H{"detail": detail})
}

// JSON writes a success payload as-is.
func JSON(ctx *gin.Context, status int, data gin.H) {
	ctx.JSON(status, data)
}
