package dialect

// composed 在基础行为之上叠加 Bundle 的覆盖项
type composed struct {
	base   Behavior
	bundle *Bundle
}

// Compose 将方言能力集合叠加到基础行为之上。
//
// 每个方法优先使用 bundle（及其 parent 链）的覆盖项，未覆盖时委托给 base。
// bundle 为 nil 时直接返回 base。
func Compose(base Behavior, bundle *Bundle) Behavior {
	if base == nil {
		base = Generic()
	}
	if bundle == nil {
		return base
	}
	return &composed{base: base, bundle: bundle}
}

func (c *composed) Name() Name {
	if c.bundle.name == "" {
		return c.base.Name()
	}
	return c.bundle.name
}

func (c *composed) Capabilities() Capabilities {
	return c.base.Capabilities().Union(c.bundle.Capabilities())
}

func (c *composed) QuoteIdentifier(name string) string {
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.quoter != nil }); b != nil {
		return b.quoter(name)
	}
	return c.base.QuoteIdentifier(name)
}

func (c *composed) Rebind(query string) string {
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.placeholders != nil }); b != nil {
		return b.placeholders.Rebind(query)
	}
	return c.base.Rebind(query)
}

func (c *composed) Paginate(limit, offset int, ordered bool) (string, []any) {
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.pagination != nil }); b != nil {
		return b.pagination.Clause(limit, offset, ordered)
	}
	return c.base.Paginate(limit, offset, ordered)
}

func (c *composed) SupportsDeleteLimit() bool {
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.deleteLimit != nil }); b != nil {
		return *b.deleteLimit
	}
	return c.base.SupportsDeleteLimit()
}

func (c *composed) LockClause(skipLocked bool) string {
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.locking != nil }); b != nil {
		return b.locking.Clause(skipLocked)
	}
	return c.base.LockClause(skipLocked)
}

func (c *composed) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.uniqueViolation != nil }); b != nil {
		return b.uniqueViolation(err)
	}
	return c.base.IsUniqueViolation(err)
}

// IsQuery 方言关键字是对基础关键字的补充
func (c *composed) IsQuery(query string) bool {
	if kws := c.bundle.queryKeywordChain(); len(kws) > 0 && hasLeadingKeyword(query, kws) {
		return true
	}
	return c.base.IsQuery(query)
}

func (c *composed) LastInsertIDQuery() string {
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.lastInsertID != nil }); b != nil {
		return *b.lastInsertID
	}
	return c.base.LastInsertIDQuery()
}

func (c *composed) TableTypes() []string {
	if b := c.bundle.lookup(func(b *Bundle) bool { return b.tableTypes != nil }); b != nil {
		out := make([]string, len(b.tableTypes))
		copy(out, b.tableTypes)
		return out
	}
	return c.base.TableTypes()
}
