// Package service 业务服务层，组合存储与领域组件完成一次完整的业务操作.
package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/cache"
	"github.com/yeisme/notesphere/pkg/configs"
	ctxPkg "github.com/yeisme/notesphere/pkg/context"
	"github.com/yeisme/notesphere/pkg/internal/storage/blob"
	"github.com/yeisme/notesphere/pkg/internal/storage/kv"
	"github.com/yeisme/notesphere/pkg/queue"
)

// Deps 服务依赖.
// KV 与 MQ 可以为空，分别关闭列表缓存失效与事件发布.
type Deps struct {
	DB     *gorm.DB
	Blob   blob.Store
	KV     kv.KVStore
	MQ     queue.MessagePublisher
	Config *configs.AppConfig
	Now    func() time.Time
}

// DepsFromContext 从请求 context 中的存储管理器与全局配置组装依赖.
func DepsFromContext(ctx context.Context) Deps {
	d := Deps{Config: configs.GetConfig(), Now: time.Now}

	if dbc := ctxPkg.GetDBClient(ctx); dbc != nil {
		d.DB = dbc.DB
	}

	d.Blob = ctxPkg.GetBlobStore(ctx)

	if kvc := ctxPkg.GetKVClient(ctx); kvc != nil && kvc.KVStore != nil {
		d.KV = kvc.KVStore
	}

	if mqc := ctxPkg.GetMQClient(ctx); mqc != nil {
		d.MQ = mqc
	}

	return d
}

func (d Deps) config() *configs.AppConfig {
	if d.Config != nil {
		return d.Config
	}

	return configs.GetConfig()
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}

	return time.Now()
}

func (d Deps) cache() *cache.Cache {
	if d.KV == nil {
		return nil
	}

	return cache.NewCache(d.KV)
}

func (d Deps) events() *queue.Publisher {
	return queue.NewPublisher(d.MQ, d.config().Events)
}
