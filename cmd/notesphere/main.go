// Package main 启动应用程序
package main

import (
	"fmt"
	"os"

	"github.com/yeisme/notesphere/pkg/cmd"
)

//	@title			NoteSphere API
//	@version		1.0
//	@description	NoteSphere 学习笔记共享平台：免费用户按周限额下载，会员不限量，管理员审核笔记。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

//	@BasePath	/api

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
