package extension

import (
	"fmt"
	"sync"
)

// Unit 可发现的扩展单元，加载时向注册表声明自己的方言
type Unit interface {
	// ID 单元的规范标识，同一 Loader 内相同 ID 只加载一次
	ID() string
	// Load 执行单元的注册调用
	Load(reg *Registry) error
}

type funcUnit struct {
	id string
	fn func(reg *Registry) error
}

func (u *funcUnit) ID() string               { return u.id }
func (u *funcUnit) Load(reg *Registry) error { return u.fn(reg) }

// NewUnit 以函数构造扩展单元
func NewUnit(id string, fn func(reg *Registry) error) Unit {
	return &funcUnit{id: id, fn: fn}
}

// Catalog 编译期提供的扩展单元目录
type Catalog struct {
	mu    sync.RWMutex
	units []Unit
	ids   map[string]bool
}

// NewCatalog 创建空目录
func NewCatalog() *Catalog {
	return &Catalog{ids: make(map[string]bool)}
}

// Add 追加单元；ID 重复时返回错误
func (c *Catalog) Add(u Unit) error {
	if u == nil {
		return fmt.Errorf("extension: unit is nil")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.ids[u.ID()] {
		return fmt.Errorf("extension: unit %s already provided", u.ID())
	}
	c.ids[u.ID()] = true
	c.units = append(c.units, u)
	return nil
}

// Name 实现 Source
func (c *Catalog) Name() string { return "catalog" }

// Units 按提供顺序返回单元
func (c *Catalog) Units() ([]Unit, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Unit, len(c.units))
	copy(out, c.units)
	return out, nil
}

var defaultCatalog = NewCatalog()

// Provide 将单元加入默认目录，通常在方言包的 init 中调用。
// 与 database/sql.Register 相同，重复提供同一 ID 会 panic。
func Provide(u Unit) {
	if err := defaultCatalog.Add(u); err != nil {
		panic(err)
	}
}

// DefaultCatalog 返回进程默认目录
func DefaultCatalog() *Catalog { return defaultCatalog }
