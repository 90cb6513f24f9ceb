package job

import (
	"context"
	"testing"
	"time"
)

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()

	id, err := r.Register("demo.hello", func(ctx *Context) error { return nil }, "测试函数")
	if err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}
	if id == "" {
		t.Fatal("函数ID不应为空")
	}

	if !r.Exists(id) {
		t.Error("注册后函数应当存在")
	}
	if r.Get(id) == nil {
		t.Error("应当能通过ID获取函数")
	}
	if r.GetByName("demo.hello") == nil {
		t.Error("应当能通过名称获取函数")
	}
	if r.GetIDByName("demo.hello") != id {
		t.Error("通过名称获取的ID不一致")
	}

	meta := r.GetMeta(id)
	if meta == nil || meta.Name != "demo.hello" || meta.Description != "测试函数" {
		t.Errorf("元数据错误: %+v", meta)
	}
}

func TestRegistryRegisterDuplicate(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Register("dup", func(ctx *Context) error { return nil }, ""); err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}
	if _, err := r.Register("dup", func(ctx *Context) error { return nil }, ""); err == nil {
		t.Error("重复注册同名函数应当返回错误")
	}
}

func TestRegistryRegisterInvalid(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Register("", func(ctx *Context) error { return nil }, ""); err == nil {
		t.Error("空名称应当返回错误")
	}
	if _, err := r.Register("nil-fn", nil, ""); err == nil {
		t.Error("空函数应当返回错误")
	}
}

func TestRegistryUnregister(t *testing.T) {
	r := NewRegistry()

	id, err := r.Register("temp", func(ctx *Context) error { return nil }, "")
	if err != nil {
		t.Fatalf("注册函数失败: %v", err)
	}

	if err := r.Unregister(id); err != nil {
		t.Fatalf("注销函数失败: %v", err)
	}
	if r.Exists(id) {
		t.Error("注销后函数不应存在")
	}
	if r.GetByName("temp") != nil {
		t.Error("注销后不应能通过名称获取")
	}

	if err := r.Unregister(id); err == nil {
		t.Error("重复注销应当返回错误")
	}
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		t.Fatalf("注册内置函数失败: %v", err)
	}

	for _, name := range []string{"shell.command", "builtin.sleep", "builtin.print"} {
		if r.GetByName(name) == nil {
			t.Errorf("内置函数 %s 未注册", name)
		}
	}
}

func TestContextParams(t *testing.T) {
	ctx := NewContext(context.Background(), "j1", "demo", "p1", "r1", map[string]any{
		"name":    "张三",
		"count":   3,
		"ratio":   1.5,
		"enabled": true,
		"tags":    []any{"a", "b"},
	})

	if ctx.GetParamString("name") != "张三" {
		t.Error("字符串参数获取错误")
	}
	if n, err := ctx.GetParamInt("count"); err != nil || n != 3 {
		t.Errorf("整数参数获取错误: %d, %v", n, err)
	}
	if n, err := ctx.GetParamInt("ratio"); err != nil || n != 1 {
		t.Errorf("浮点转整数参数获取错误: %d, %v", n, err)
	}
	if b, err := ctx.GetParamBool("enabled"); err != nil || !b {
		t.Errorf("布尔参数获取错误: %v, %v", b, err)
	}
	if tags := ctx.GetParamStringSlice("tags"); len(tags) != 2 || tags[0] != "a" {
		t.Errorf("切片参数获取错误: %v", tags)
	}
	if !ctx.HasParam("name") || ctx.HasParam("missing") {
		t.Error("HasParam判断错误")
	}
	if ctx.GetParam("missing") != nil {
		t.Error("不存在的参数应当返回nil")
	}
	if _, err := ctx.GetParamInt("missing"); err == nil {
		t.Error("不存在的整数参数应当返回错误")
	}
}

func TestBuiltinSleep(t *testing.T) {
	ctx := NewContext(context.Background(), "j1", "sleep", "p1", "r1", map[string]any{
		"duration": "10ms",
	})
	start := time.Now()
	if err := Sleep(ctx); err != nil {
		t.Fatalf("sleep执行失败: %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("sleep时长不足")
	}

	// 缺少duration应当报错
	bad := NewContext(context.Background(), "j2", "sleep", "p1", "r1", nil)
	if err := Sleep(bad); err == nil {
		t.Error("缺少duration参数应当返回错误")
	}
}

func TestBuiltinSleepCancel(t *testing.T) {
	cctx, cancel := context.WithCancel(context.Background())
	ctx := NewContext(cctx, "j1", "sleep", "p1", "r1", map[string]any{
		"duration": "5s",
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := Sleep(ctx)
	if err == nil {
		t.Fatal("取消后sleep应当返回错误")
	}
	if time.Since(start) > time.Second {
		t.Error("取消后sleep应当立即返回")
	}
}
