package extension

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"dbadapter/errors"
	"dbadapter/logging"
)

// LoadObserver 单元加载事件观察者
type LoadObserver interface {
	UnitLoaded(id string)
}

// Loader 发现并加载扩展单元。
//
// 每个单元在同一 Loader 内最多加载一次；加载失败会中止本次发现并返回
// ErrCodeExtensionLoad 错误，不会静默跳过。
type Loader struct {
	mu        sync.Mutex
	registry  *Registry
	config    LoaderConfig
	catalog   *Catalog
	extra     []Source
	out       io.Writer
	logger    logging.Logger
	observers []LoadObserver

	loaded map[string]bool
	order  []string
}

// LoaderOption Loader 选项
type LoaderOption func(*Loader)

// WithCatalog 替换默认的编译期目录
func WithCatalog(c *Catalog) LoaderOption {
	return func(l *Loader) { l.catalog = c }
}

// WithSources 追加额外的单元来源，排在文件系统来源之后
func WithSources(sources ...Source) LoaderOption {
	return func(l *Loader) { l.extra = append(l.extra, sources...) }
}

// WithOutput 设置调试输出目标，默认标准输出
func WithOutput(w io.Writer) LoaderOption {
	return func(l *Loader) {
		if w != nil {
			l.out = w
		}
	}
}

// WithLoaderLogger 设置日志记录器
func WithLoaderLogger(logger logging.Logger) LoaderOption {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithLoadObserver 添加加载事件观察者
func WithLoadObserver(o LoadObserver) LoaderOption {
	return func(l *Loader) {
		if o != nil {
			l.observers = append(l.observers, o)
		}
	}
}

// NewLoader 创建 Loader。
//
// 环境变量 DBADAPTER_DEBUG 为真时总会打开调试输出，调用方无需自行合并 LoaderConfigFromEnv。
func NewLoader(reg *Registry, cfg LoaderConfig, opts ...LoaderOption) *Loader {
	if LoaderConfigFromEnv().Debug {
		cfg.Debug = true
	}
	l := &Loader{
		registry: reg,
		config:   cfg.withDefaults(),
		catalog:  defaultCatalog,
		out:      os.Stdout,
		logger:   logging.GetLogger(),
		loaded:   make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.WithFields(logging.String("component", "extension.loader"))
	return l
}

// Sources 返回本 Loader 使用的来源，按查找顺序排列。
//
// 配置了 PackagesRoot 时使用包目录查找，否则使用普通搜索路径。
func (l *Loader) Sources() []Source {
	var sources []Source
	if l.catalog != nil {
		sources = append(sources, l.catalog)
	}
	switch {
	case l.config.PackagesRoot != "":
		sources = append(sources, &PackageSource{
			Root:        l.config.PackagesRoot,
			Namespace:   l.config.Namespace,
			SelfRoot:    l.config.SelfRoot,
			SelfPackage: l.config.SelfPackage,
			Logger:      l.logger,
		})
	case len(l.config.SearchPaths) > 0:
		sources = append(sources, &PathSource{
			Dirs:      l.config.SearchPaths,
			Namespace: l.config.Namespace,
		})
	}
	return append(sources, l.extra...)
}

// Discover 枚举全部来源并加载尚未加载的单元，返回本次加载的单元 ID
func (l *Loader) Discover() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	ctx := context.Background()
	var loaded []string
	for _, src := range l.Sources() {
		units, err := src.Units()
		if err != nil {
			l.logger.Error(ctx, "枚举扩展单元失败",
				logging.String("source", src.Name()), logging.Error(err))
			return nil, errors.WrapError(err, errors.ErrCodeExtensionLoad, "枚举扩展单元失败: "+src.Name()).
				WithContext("source", src.Name())
		}

		for _, u := range units {
			id := u.ID()
			if l.loaded[id] {
				continue
			}
			if l.config.Debug {
				fmt.Fprintf(l.out, "loading dialect extension %s\n", id)
			}
			if err := l.load(u); err != nil {
				l.logger.Error(ctx, "扩展单元加载失败",
					logging.String("unit", id), logging.Error(err))
				return nil, errors.WrapLoadError(err, id)
			}
			l.loaded[id] = true
			l.order = append(l.order, id)
			loaded = append(loaded, id)
			l.logger.Info(ctx, "扩展单元已加载",
				logging.String("unit", id), logging.String("source", src.Name()))
			for _, o := range l.observers {
				o.UnitLoaded(id)
			}
		}
	}
	return loaded, nil
}

// Loaded 返回该 Loader 已加载的全部单元 ID，按加载顺序
func (l *Loader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.order...)
}

func (l *Loader) load(u Unit) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic while loading: %v", rec)
		}
	}()
	return u.Load(l.registry)
}
