// Package extension 提供方言注册表、驱动名匹配与扩展单元发现。
//
// 方言通过 Registry.Register 声明匹配器与能力集合；建立连接时 Registry.Resolve
// 按注册顺序返回第一个匹配的能力集合，没有匹配时调用方回落到通用行为。
package extension

import (
	"context"
	"sync"

	"dbadapter/data/db/dialect"
	"dbadapter/logging"
)

// Descriptor 方言描述：名称、能力集合与匹配器
type Descriptor struct {
	reg     *Registry
	name    dialect.Name
	bundle  *dialect.Bundle
	matcher Matcher // 由 reg.mu 保护

	behaviorOnce sync.Once
	behavior     dialect.Behavior
}

// Name 返回方言名称
func (d *Descriptor) Name() dialect.Name { return d.name }

// Bundle 返回能力集合；同名重复注册时保持同一实例
func (d *Descriptor) Bundle() *dialect.Bundle { return d.bundle }

// Arity 返回当前匹配器的参数个数
func (d *Descriptor) Arity() int {
	d.reg.mu.RLock()
	defer d.reg.mu.RUnlock()
	return d.matcher.Arity()
}

// Behavior 返回叠加到通用行为上的组合行为，首次调用时构造并缓存
func (d *Descriptor) Behavior() dialect.Behavior {
	d.behaviorOnce.Do(func() {
		d.behavior = dialect.Compose(dialect.Generic(), d.bundle)
	})
	return d.behavior
}

// Observer 注册事件观察者
type Observer interface {
	// DialectRegistered redeclared 为 true 表示同名方言重复声明
	DialectRegistered(d *Descriptor, redeclared bool)
}

// Registry 方言注册表。
//
// 写操作持有写锁，解析与查询持有读锁。匹配器在锁外执行，
// 因此匹配器内部调用 Register 不会死锁。
type Registry struct {
	mu        sync.RWMutex
	byName    map[dialect.Name]*Descriptor
	ordered   []*Descriptor
	observers []Observer
	logger    logging.Logger
}

// RegistryOption 注册表选项
type RegistryOption func(*Registry)

// WithLogger 设置日志记录器
func WithLogger(logger logging.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver 添加注册事件观察者
func WithObserver(o Observer) RegistryOption {
	return func(r *Registry) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// NewRegistry 创建空注册表
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		byName: make(map[dialect.Name]*Descriptor),
		logger: logging.GetLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.WithFields(logging.String("component", "extension.registry"))
	return r
}

// AddObserver 在注册表创建后追加观察者
func (r *Registry) AddObserver(o Observer) {
	if o == nil {
		return
	}
	r.mu.Lock()
	r.observers = append(r.observers, o)
	r.mu.Unlock()
}

// Register 注册方言。
//
// 名称不存在时以 opts 创建新的能力集合并追加到注册顺序末尾；
// 名称已存在时保留描述、顺序位置、能力集合与最先注册的匹配器，新的 m 与 opts 均被忽略。
// 注册总是成功。
func (r *Registry) Register(name dialect.Name, m Matcher, opts ...dialect.Option) *Descriptor {
	r.mu.Lock()
	d, redeclared := r.byName[name]
	if !redeclared {
		d = &Descriptor{
			reg:     r,
			name:    name,
			bundle:  dialect.NewBundle(name, opts...),
			matcher: m,
		}
		r.byName[name] = d
		r.ordered = append(r.ordered, d)
	}
	observers := append([]Observer(nil), r.observers...)
	r.mu.Unlock()

	ctx := context.Background()
	if redeclared {
		if len(opts) > 0 {
			r.logger.Warn(ctx, "重复声明方言，忽略新的能力选项",
				logging.String("dialect", string(name)),
				logging.Int("options", len(opts)))
		}
		r.logger.Debug(ctx, "方言已注册，保留原匹配器", logging.String("dialect", string(name)))
	} else {
		r.logger.Debug(ctx, "方言已注册",
			logging.String("dialect", string(name)),
			logging.Int("arity", m.Arity()))
	}

	for _, o := range observers {
		o.DialectRegistered(d, redeclared)
	}
	return d
}

// Lookup 按名称查找方言描述
func (r *Registry) Lookup(name dialect.Name) (*Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byName[name]
	return d, ok
}

// Descriptors 按注册顺序返回描述快照
func (r *Registry) Descriptors() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Names 按注册顺序返回方言名称
func (r *Registry) Names() []dialect.Name {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]dialect.Name, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = d.name
	}
	return out
}

// Len 返回已注册方言数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}
