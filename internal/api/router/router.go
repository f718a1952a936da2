package router

import (
	"context"
	"crypto/subtle"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/hertz-contrib/keyauth"

	"resume-match-go/internal/api/handler"
	"resume-match-go/internal/config"
)

// RegisterRoutes 注册AI接口路由。
// 配置了Server.APIKey时为/api/ai分组启用keyauth鉴权。
func RegisterRoutes(h *server.Hertz, cfg *config.Config, aiHandler *handler.AIHandler) {
	api := h.Group("/api/ai")

	if cfg.Server.APIKey != "" {
		api.Use(keyauth.New(
			keyauth.WithKeyLookUp("header:X-Api-Key", ""),
			keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
				return subtle.ConstantTimeCompare([]byte(key), []byte(cfg.Server.APIKey)) == 1, nil
			}),
			keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
				c.JSON(consts.StatusUnauthorized, utils.H{"error": "无效的API Key"})
				c.Abort()
			}),
		))
	}

	api.POST("/recommend", aiHandler.HandleRecommend)
	api.POST("/resumes/:resume_id/generate-questions", aiHandler.HandleGenerateQuestions)
	api.POST("/process-resume", aiHandler.HandleProcessResume)
	api.GET("/healthcheck", aiHandler.HandleHealthcheck)
	api.GET("/llm", aiHandler.HandleLLMCheck)
}
