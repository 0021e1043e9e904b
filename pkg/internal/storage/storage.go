// Package storage 聚合应用使用的所有存储资源：数据库、文件存储、KV 与消息队列.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		// 处理错误
//	}
//
//	dbClient := mgr.GetDBClient()
//	blobStore := mgr.GetBlobStore()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/notesphere/pkg/configs"
	"github.com/yeisme/notesphere/pkg/internal/storage/blob"
	dbc "github.com/yeisme/notesphere/pkg/internal/storage/db"
	kvc "github.com/yeisme/notesphere/pkg/internal/storage/kv"
	mqc "github.com/yeisme/notesphere/pkg/internal/storage/mq"
	s3c "github.com/yeisme/notesphere/pkg/internal/storage/s3"
	nlog "github.com/yeisme/notesphere/pkg/log"
)

// Manager 聚合所有存储资源.
// S3 仅在 storage.backend=s3 时存在，MQ 仅在 events.enabled 时存在.
type Manager struct {
	DB   *dbc.Client
	Blob blob.Store
	KV   *kvc.Client
	MQ   *mqc.Client
	S3   *s3c.Client
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 初始化默认存储，使用全局配置.重复调用只返回已初始化实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = Build(ctx, configs.GetConfig())
		if mgrErr == nil {
			nlog.Logger().Info().Msg("storage manager initialized")
		}
	})

	return mgr, mgrErr
}

// Build 按给定配置创建 Manager，供 Init 与命令行工具使用.
func Build(ctx context.Context, cfg *configs.AppConfig) (*Manager, error) {
	m := &Manager{}

	dbi, err := dbc.Open(ctx, &cfg.DB, cfg.Log.SQL)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}

	if cfg.Metrics.Enabled {
		if err := dbi.RegisterGORMMetrics(cfg.DB.Database); err != nil {
			return nil, err
		}
	}

	m.DB = dbi

	switch cfg.Storage.Backend {
	case configs.BlobBackendS3:
		s3i, err := s3c.New(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("init s3: %w", err)
		}

		m.S3 = s3i
		m.Blob = blob.NewS3Store(s3i, cfg.S3.KeyPrefix)
	default:
		local, err := blob.NewLocalStore(cfg.Storage.LocalRoot)
		if err != nil {
			return nil, fmt.Errorf("init local blob store: %w", err)
		}

		m.Blob = local
	}

	store, err := kvc.NewKVStore(ctx, &cfg.KV)
	if err != nil {
		return nil, fmt.Errorf("init kv: %w", err)
	}

	m.KV = &kvc.Client{KVStore: store}

	if cfg.Events.Enabled {
		mqi, err := mqc.Open(ctx, &cfg.MQ)
		if err != nil {
			// 事件发布为尽力而为，MQ 不可用时不阻止启动
			nlog.Logger().Warn().Err(err).Msg("mq unavailable, domain events disabled")
		} else {
			m.MQ = mqi
		}
	}

	return m, nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client {
	return m.DB
}

// GetBlobStore 获取文件存储.
func (m *Manager) GetBlobStore() blob.Store {
	return m.Blob
}

// GetS3Client 获取 S3 客户端.
func (m *Manager) GetS3Client() *s3c.Client {
	return m.S3
}

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client {
	return m.KV
}

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client {
	return m.MQ
}

// Close 释放所有资源.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
