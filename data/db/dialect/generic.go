package dialect

var (
	genericQueryKeywords = []string{"SELECT", "WITH", "SHOW", "EXPLAIN", "DESCRIBE"}
	genericTableTypes    = []string{"TABLE", "VIEW"}

	// 对未知方言做宽松匹配，尽量不误判但宁可返回 false
	genericUniqueViolation = MessageContains("duplicate key", "unique constraint")
)

// generic 与方言无关的默认行为
type generic struct{}

var genericBehavior Behavior = generic{}

// Generic 返回通用行为：
//   - 标识符不加引号，占位符保持 ?；
//   - LIMIT/OFFSET 分页，不支持 DELETE LIMIT 与行锁；
//   - 唯一键冲突按常见错误消息宽松识别。
func Generic() Behavior { return genericBehavior }

func (generic) Name() Name                         { return NameGeneric }
func (generic) Capabilities() Capabilities         { return Capabilities{} }
func (generic) QuoteIdentifier(name string) string { return QuoteNone.Quote(name) }
func (generic) Rebind(query string) string         { return PlaceholderQuestion.Rebind(query) }
func (generic) SupportsDeleteLimit() bool          { return false }
func (generic) LockClause(bool) string             { return LockNone.Clause(false) }
func (generic) IsUniqueViolation(err error) bool   { return genericUniqueViolation(err) }
func (generic) LastInsertIDQuery() string          { return "" }

func (generic) Paginate(limit, offset int, ordered bool) (string, []any) {
	return PaginateLimitOffset.Clause(limit, offset, ordered)
}

func (generic) IsQuery(query string) bool {
	return hasLeadingKeyword(query, genericQueryKeywords)
}

func (generic) TableTypes() []string {
	out := make([]string, len(genericTableTypes))
	copy(out, genericTableTypes)
	return out
}
