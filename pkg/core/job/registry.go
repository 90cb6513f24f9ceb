package job

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Func Job函数类型，接收执行上下文，返回错误表示失败（对外导出）
type Func func(ctx *Context) error

// Meta Job函数元数据（对外导出）
type Meta struct {
	ID          string // 函数ID（注册时生成）
	Name        string // 函数名称（唯一标识）
	Description string // 函数描述
}

// Registry Job函数注册中心（对外导出）
type Registry struct {
	mu        sync.RWMutex
	functions map[string]Func  // 函数ID -> 函数
	metaMap   map[string]*Meta // 函数ID -> 元数据
	nameIndex map[string]string // 函数名称 -> 函数ID
}

// NewRegistry 创建函数注册中心（对外导出）
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]Func),
		metaMap:   make(map[string]*Meta),
		nameIndex: make(map[string]string),
	}
}

// Register 注册Job函数（对外导出）
// name: 函数名称（唯一标识，不能为空）
// fn: 用户自定义函数
// description: 函数描述（可选）
// 返回: 函数ID和错误
func (r *Registry) Register(name string, fn Func, description string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("函数名称不能为空")
	}
	if fn == nil {
		return "", fmt.Errorf("函数实例不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.nameIndex[name]; exists {
		return "", fmt.Errorf("函数 %s 已注册", name)
	}

	id := uuid.New().String()
	r.functions[id] = fn
	r.metaMap[id] = &Meta{ID: id, Name: name, Description: description}
	r.nameIndex[name] = id

	return id, nil
}

// Get 根据函数ID获取函数，未注册返回nil（对外导出）
func (r *Registry) Get(funcID string) Func {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.functions[funcID]
}

// GetByName 根据函数名获取函数，未注册返回nil（对外导出）
func (r *Registry) GetByName(name string) Func {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.nameIndex[name]
	if !ok {
		return nil
	}
	return r.functions[id]
}

// GetIDByName 根据函数名称获取函数ID（对外导出）
func (r *Registry) GetIDByName(name string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nameIndex[name]
}

// GetMeta 根据函数ID获取元数据（对外导出）
func (r *Registry) GetMeta(funcID string) *Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metaMap[funcID]
}

// Exists 检查函数是否已注册（对外导出）
func (r *Registry) Exists(funcID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.functions[funcID]
	return exists
}

// Unregister 注销函数（对外导出）
func (r *Registry) Unregister(funcID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	meta, exists := r.metaMap[funcID]
	if !exists {
		return fmt.Errorf("函数 %s 未注册", funcID)
	}

	delete(r.functions, funcID)
	delete(r.metaMap, funcID)
	delete(r.nameIndex, meta.Name)

	return nil
}

// ListAll 列出所有已注册函数的元数据（对外导出）
func (r *Registry) ListAll() []*Meta {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metas := make([]*Meta, 0, len(r.metaMap))
	for _, meta := range r.metaMap {
		metas = append(metas, meta)
	}
	return metas
}

// FuncDef 函数定义，用于批量注册
type FuncDef struct {
	Name        string // 函数名称
	Description string // 函数描述
	Function    Func   // 函数实例
}

// RegisterBatch 批量注册函数（对外导出）
func (r *Registry) RegisterBatch(functions []FuncDef) error {
	for _, def := range functions {
		if _, err := r.Register(def.Name, def.Function, def.Description); err != nil {
			return fmt.Errorf("注册函数 %s 失败: %w", def.Name, err)
		}
	}
	return nil
}
