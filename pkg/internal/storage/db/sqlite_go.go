//go:build !no_sqlite && !cgo

package db

import (
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/yeisme/notesphere/pkg/configs"
)

const pureBusyTimeout = "_pragma=busy_timeout(5000)"

// createSQLiteDialector 创建 SQLite dialector（纯 Go 版本）.
func createSQLiteDialector(dsn string) gorm.Dialector {
	if !strings.Contains(dsn, "busy_timeout") {
		dsn += querySep(dsn) + pureBusyTimeout
	}

	return sqlite.Open(dsn)
}

func init() {
	RegisterDialectorFactory(configs.SQLite, createSQLiteDialector)
}
