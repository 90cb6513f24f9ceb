package main

import (
	"github.com/LENAX/dag-scheduler/pkg/cli/cmd"
)

// CLI入口：管理Pipeline、查询运行实例、启动服务
func main() {
	cmd.Execute()
}
