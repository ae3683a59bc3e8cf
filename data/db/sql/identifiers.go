package sql

import (
	"fmt"
	"sort"
	"strings"

	"dbadapter/data/db/dialect"
)

// isSafeIdentifier 判断标识符是否为“安全的数据库标识符”。
//
// 允许 foo、bar_1 这样的单一标识符，以及 schema.table 这样的限定名。
// 每段非空，首字符为 [A-Za-z_]，其余为 [A-Za-z0-9_]。
// 只做 ASCII 校验，足以挡住空格、分号之类的注入片段。
func isSafeIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, part := range strings.Split(name, ".") {
		if part == "" {
			return false
		}
		for i := 0; i < len(part); i++ {
			ch := part[i]
			letter := ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
			if !letter && (i == 0 || ch < '0' || ch > '9') {
				return false
			}
		}
	}
	return true
}

// quoteIdentifier 校验后按方言加引号，不安全的名称直接 panic（属于调用方编程错误）
func quoteIdentifier(beh dialect.Behavior, builder, kind, name string) string {
	if !isSafeIdentifier(name) {
		panic(fmt.Sprintf("%s: unsafe %s name %s", builder, kind, name))
	}
	return beh.QuoteIdentifier(name)
}

// conditions WHERE 子句的条件与参数，多个条件以 AND 连接
type conditions struct {
	exprs []string
	args  []any
}

func (c *conditions) and(cond string, args []any) {
	if cond == "" {
		return
	}
	c.exprs = append(c.exprs, cond)
	c.args = append(c.args, args...)
}

// or 与最后一个条件组成 (last OR cond)；没有条件时等同 and
func (c *conditions) or(cond string, args []any) {
	if cond == "" {
		return
	}
	if len(c.exprs) == 0 {
		c.and(cond, args)
		return
	}
	last := len(c.exprs) - 1
	c.exprs[last] = "(" + c.exprs[last] + " OR " + cond + ")"
	c.args = append(c.args, args...)
}

// write 追加 WHERE 子句并返回追加了条件参数的 args
func (c *conditions) write(sb *strings.Builder, args []any) []any {
	if len(c.exprs) == 0 {
		return args
	}
	sb.WriteString(" WHERE ")
	sb.WriteString(strings.Join(c.exprs, " AND "))
	return append(args, c.args...)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
