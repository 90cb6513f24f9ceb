package job

import (
	"fmt"
	"log"
	"os/exec"
	"time"
)

// RegisterBuiltins 注册内置Job函数（对外导出）
// 内置函数覆盖最常见的流水线步骤，用户可以在配置中直接引用
func RegisterBuiltins(r *Registry) error {
	return r.RegisterBatch([]FuncDef{
		{Name: "shell.command", Description: "执行shell命令", Function: ShellCommand},
		{Name: "builtin.sleep", Description: "休眠指定时长", Function: Sleep},
		{Name: "builtin.print", Description: "打印消息", Function: Print},
	})
}

// ShellCommand 执行shell命令的内置函数（对外导出）
// 配置参数：
//   - command (string, 必需) - 命令名
//   - args ([]string, 可选) - 命令参数
func ShellCommand(ctx *Context) error {
	command := ctx.GetParamString("command")
	if command == "" {
		return fmt.Errorf("参数 command 不能为空")
	}
	args := ctx.GetParamStringSlice("args")

	cmd := exec.CommandContext(ctx.Context(), command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("❌ [ShellCommand] JobID=%s, 命令执行失败: %v, 输出: %s", ctx.JobID, err, output)
		return fmt.Errorf("命令 %s 执行失败: %w", command, err)
	}

	log.Printf("✅ [ShellCommand] JobID=%s, 命令执行成功, 输出: %s", ctx.JobID, output)
	return nil
}

// Sleep 休眠指定时长的内置函数（对外导出）
// 配置参数：duration (string, 必需) - 时长，如 "500ms"、"2s"
func Sleep(ctx *Context) error {
	raw := ctx.GetParamString("duration")
	if raw == "" {
		return fmt.Errorf("参数 duration 不能为空")
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("参数 duration 格式错误: %w", err)
	}

	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Print 打印消息的内置函数（对外导出）
// 配置参数：message (string, 可选) - 要打印的消息
func Print(ctx *Context) error {
	message := ctx.GetParamString("message")
	log.Printf("📝 [Print] JobID=%s, JobName=%s, 消息: %s", ctx.JobID, ctx.JobName, message)
	return nil
}
