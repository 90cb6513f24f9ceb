package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Table 简单表格输出
// 列宽按显示宽度计算：单元格里有中文（流水线名、错误消息）时
// 按字节数对齐会整列错位。
type Table struct {
	headers []string
	rows    [][]string
	widths  []int
}

// NewTable 创建表格
func NewTable(headers []string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = displayWidth(h)
	}
	return &Table{
		headers: headers,
		widths:  widths,
	}
}

// AddRow 添加行，超出表头的列被丢弃
func (t *Table) AddRow(row []string) {
	if len(row) > len(t.headers) {
		row = row[:len(t.headers)]
	}
	for i, cell := range row {
		if w := displayWidth(cell); w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// Render 渲染表格
func (t *Table) Render() {
	headerColor := color.New(color.FgCyan, color.Bold)
	for i, h := range t.headers {
		headerColor.Print(pad(h, t.widths[i]))
		fmt.Print("  ")
	}
	fmt.Println()

	for _, w := range t.widths {
		fmt.Print(strings.Repeat("-", w), "  ")
	}
	fmt.Println()

	for _, row := range t.rows {
		for i, cell := range row {
			fmt.Print(pad(cell, t.widths[i]), "  ")
		}
		fmt.Println()
	}
}

// displayWidth 计算终端显示宽度，CJK字符占两列
// ANSI着色序列（StatusColor的输出会进表格）不占宽度
func displayWidth(s string) int {
	width := 0
	inEscape := false
	for _, r := range s {
		if inEscape {
			if r == 'm' {
				inEscape = false
			}
			continue
		}
		if r == '\x1b' {
			inEscape = true
			continue
		}
		if r >= 0x1100 && (r <= 0x115F || // Hangul Jamo
			(r >= 0x2E80 && r <= 0x9FFF) || // CJK部首、汉字
			(r >= 0xAC00 && r <= 0xD7A3) || // Hangul音节
			(r >= 0xF900 && r <= 0xFAFF) || // CJK兼容汉字
			(r >= 0xFF00 && r <= 0xFF60)) { // 全角符号
			width += 2
		} else {
			width++
		}
	}
	return width
}

// pad 右侧补空格到指定显示宽度
func pad(s string, width int) string {
	if gap := width - displayWidth(s); gap > 0 {
		return s + strings.Repeat(" ", gap)
	}
	return s
}

// StatusColor 按运行状态着色
func StatusColor(status string) string {
	switch status {
	case "SUCCESS":
		return color.GreenString(status)
	case "FAILED":
		return color.RedString(status)
	case "RUNNING":
		return color.CyanString(status)
	case "BLOCKED", "CANCELED":
		return color.YellowString(status)
	default:
		return status
	}
}
