package middleware

import (
	"log"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/LENAX/dag-scheduler/pkg/api/dto"
)

// Recovery panic恢复中间件
// handler里的panic只打掉当前请求，不影响调度引擎和其它请求
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("❌ [Recovery] %s %s panic: %v\n%s",
					c.Request.Method, c.Request.URL.Path, err, debug.Stack())

				c.JSON(http.StatusInternalServerError, dto.NewErrorResponse(
					http.StatusInternalServerError,
					"服务器内部错误",
				))
				c.Abort()
			}
		}()
		c.Next()
	}
}
