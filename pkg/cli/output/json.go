package output

import (
	"encoding/json"
	"os"

	"github.com/fatih/color"
)

// 消息级别对应的着色器，进程内复用
var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
)

// PrintJSON 以缩进JSON输出到标准输出，--json模式下使用
func PrintJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Success 输出成功消息
func Success(format string, args ...interface{}) {
	successColor.Printf("✅ "+format+"\n", args...)
}

// Error 输出错误消息，走标准错误流以免污染JSON输出
func Error(format string, args ...interface{}) {
	errorColor.Fprintf(os.Stderr, "❌ "+format+"\n", args...)
}

// Info 输出信息
func Info(format string, args ...interface{}) {
	infoColor.Printf("ℹ️  "+format+"\n", args...)
}

// Warning 输出警告，同样走标准错误流
func Warning(format string, args ...interface{}) {
	warnColor.Fprintf(os.Stderr, "⚠️  "+format+"\n", args...)
}
