// Package main 启动应用程序
package main

import "github.com/yeisme/photovault/pkg/cmd"

//	@title			PhotoVault API
//	@version		1.0
//	@description	PhotoVault 是摄影师相册交付服务，提供相册管理、照片直传、分享链接与打包下载等功能。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@contact.name	yeisme
//	@contact.email	yefun2004@gmail.com.

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
