// Package router 管理路由配置，把 handle 包的处理器绑定到 gin 引擎.
package router

import (
	"context"

	"github.com/gin-gonic/gin"

	appcache "github.com/yeisme/notesphere/pkg/cache"
	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/handle"
	"github.com/yeisme/notesphere/pkg/internal/model"
	"github.com/yeisme/notesphere/pkg/internal/service"
	"github.com/yeisme/notesphere/pkg/internal/storage"
	"github.com/yeisme/notesphere/pkg/middleware"
)

// Register 注册全部业务路由，挂在 cfg.Server.BasePath（默认 /api）下：
//
//	/auth      注册、登录、个人资料
//	/notes     笔记浏览、上传、下载与评分
//	/admin     管理后台（仅管理员）
//	/health    健康检查
//
// 调用方需先挂载 StorageMiddleware，身份解析依赖请求上下文中的存储.
func Register(r *gin.Engine, mgr *storage.Manager, cfg *configs.AppConfig) {
	api := r.Group(cfg.Server.BasePath)
	api.Use(middleware.IdentityMiddleware(cfg.Auth, resolveUser))

	RegisterHealthCheckRoute(api)
	RegisterAuthRoutes(api)
	RegisterNotesRoutes(api, listCache(mgr, cfg.Cache))
	RegisterAdminRoutes(api)

	r.NoRoute(handle.NotFound)
}

func resolveUser(ctx context.Context, token string) (*model.User, error) {
	return service.NewAuthService(ctx).Resolve(ctx, token)
}

// listCache 没有 KV 或未启用缓存时返回 nil.
func listCache(mgr *storage.Manager, conf configs.CacheConfig) gin.HandlerFunc {
	if !conf.Enabled || mgr == nil {
		return nil
	}

	kvc := mgr.GetKVClient()
	if kvc == nil || kvc.KVStore == nil {
		return nil
	}

	return middleware.CacheMiddleware(middleware.NoteListCacheConfig(appcache.NewCache(kvc.KVStore), conf))
}
