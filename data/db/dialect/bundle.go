package dialect

import "sort"

// Bundle 单个方言的能力覆盖集合（behavior bundle）。
//
// Bundle 在构造时确定全部覆盖项，之后只读，可被所有匹配该方言的连接共享。
// 未设置的项按 parent 链查找，仍未设置则由 Compose 交给通用实现处理。
type Bundle struct {
	name   Name
	parent *Bundle

	quoter          func(string) string
	placeholders    *PlaceholderStyle
	pagination      *PaginationStyle
	deleteLimit     *bool
	locking         *LockSupport
	uniqueViolation func(error) bool
	queryKeywords   []string
	lastInsertID    *string
	tableTypes      []string
	caps            Capabilities
}

// Option 配置 Bundle 的覆盖项
type Option func(*Bundle)

// NewBundle 创建方言能力集合；不带任何 Option 时为空集合
func NewBundle(name Name, opts ...Option) *Bundle {
	b := &Bundle{name: name}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// WithParent 继承另一个方言的覆盖项
func WithParent(parent *Bundle) Option {
	return func(b *Bundle) {
		if parent != b {
			b.parent = parent
		}
	}
}

// WithQuoteStyle 使用内置引号风格
func WithQuoteStyle(style QuoteStyle) Option {
	return func(b *Bundle) { b.quoter = style.Quote }
}

// WithQuoter 使用自定义标识符引号函数
func WithQuoter(fn func(string) string) Option {
	return func(b *Bundle) { b.quoter = fn }
}

// WithPlaceholders 设置占位符风格
func WithPlaceholders(style PlaceholderStyle) Option {
	return func(b *Bundle) { b.placeholders = &style }
}

// WithPagination 设置分页语法
func WithPagination(style PaginationStyle) Option {
	return func(b *Bundle) { b.pagination = &style }
}

// WithDeleteLimit 设置是否支持 DELETE ... LIMIT
func WithDeleteLimit(supported bool) Option {
	return func(b *Bundle) { b.deleteLimit = &supported }
}

// WithLocking 设置行锁支持程度
func WithLocking(l LockSupport) Option {
	return func(b *Bundle) { b.locking = &l }
}

// WithUniqueViolation 使用自定义唯一键冲突判定
func WithUniqueViolation(fn func(error) bool) Option {
	return func(b *Bundle) { b.uniqueViolation = fn }
}

// WithUniqueViolationMessages 按错误消息关键字识别唯一键冲突
func WithUniqueViolationMessages(substrings ...string) Option {
	return WithUniqueViolation(MessageContains(substrings...))
}

// WithQueryPrefixes 追加返回结果集的语句关键字（例如 DB2 的 VALUES）
func WithQueryPrefixes(keywords ...string) Option {
	return func(b *Bundle) { b.queryKeywords = append(b.queryKeywords, keywords...) }
}

// WithLastInsertIDQuery 设置获取自增主键的语句
func WithLastInsertIDQuery(query string) Option {
	return func(b *Bundle) { b.lastInsertID = &query }
}

// WithTableTypes 设置元数据查询使用的对象类型
func WithTableTypes(types ...string) Option {
	return func(b *Bundle) { b.tableTypes = append([]string(nil), types...) }
}

// WithCapabilities 追加能力标识
func WithCapabilities(caps ...Capability) Option {
	return func(b *Bundle) {
		if b.caps == nil {
			b.caps = Capabilities{}
		}
		for _, c := range caps {
			b.caps[c] = true
		}
	}
}

// Name 返回方言名称
func (b *Bundle) Name() Name { return b.name }

// Parent 返回继承的方言，没有时为 nil
func (b *Bundle) Parent() *Bundle { return b.parent }

// Capabilities 返回自身与 parent 链上能力的并集
func (b *Bundle) Capabilities() Capabilities {
	out := Capabilities{}
	for cur := b; cur != nil; cur = cur.parent {
		out = out.Union(cur.caps)
	}
	return out
}

// IsEmpty 是否没有任何覆盖项（包括 parent 链）
func (b *Bundle) IsEmpty() bool {
	return len(b.Overrides()) == 0
}

// Overrides 返回已覆盖的能力项名称（包括继承的），按名称排序
func (b *Bundle) Overrides() []string {
	seen := map[string]bool{}
	for cur := b; cur != nil; cur = cur.parent {
		if cur.quoter != nil {
			seen["quote"] = true
		}
		if cur.placeholders != nil {
			seen["placeholder"] = true
		}
		if cur.pagination != nil {
			seen["pagination"] = true
		}
		if cur.deleteLimit != nil {
			seen["delete_limit"] = true
		}
		if cur.locking != nil {
			seen["locking"] = true
		}
		if cur.uniqueViolation != nil {
			seen["unique_violation"] = true
		}
		if len(cur.queryKeywords) > 0 {
			seen["query_prefixes"] = true
		}
		if cur.lastInsertID != nil {
			seen["last_insert_id"] = true
		}
		if cur.tableTypes != nil {
			seen["table_types"] = true
		}
		if len(cur.caps) > 0 {
			seen["capabilities"] = true
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// lookup 沿 parent 链返回第一个满足 has 的 Bundle
func (b *Bundle) lookup(has func(*Bundle) bool) *Bundle {
	for cur := b; cur != nil; cur = cur.parent {
		if has(cur) {
			return cur
		}
	}
	return nil
}

func (b *Bundle) queryKeywordChain() []string {
	var out []string
	for cur := b; cur != nil; cur = cur.parent {
		out = append(out, cur.queryKeywords...)
	}
	return out
}
