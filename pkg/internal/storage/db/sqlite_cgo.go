//go:build !no_sqlite && cgo

package db

import (
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/configs"
)

// 并发下载计数与评分会同时写库，等锁而不是直接返回 SQLITE_BUSY.
const cgoBusyTimeout = "_busy_timeout=5000"

// createSQLiteDialector 创建 SQLite dialector（mattn/go-sqlite3）.
func createSQLiteDialector(dsn string) gorm.Dialector {
	if !strings.Contains(dsn, "_busy_timeout") {
		dsn += querySep(dsn) + cgoBusyTimeout
	}

	return sqlite.Open(dsn)
}

func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
