package dialect

import (
	"strconv"
	"strings"
)

// QuoteStyle 标识符引号风格
type QuoteStyle int

const (
	// QuoteNone 保持原样
	QuoteNone QuoteStyle = iota
	// QuoteDouble "name"（SQL 标准，Postgres/SQLite/DB2/Oracle）
	QuoteDouble
	// QuoteBacktick `name`（MySQL）
	QuoteBacktick
	// QuoteBracket [name]（SQL Server）
	QuoteBracket
)

// Quote 按风格对标识符逐段加引号。
//
// 约定：
//   - schema.table、table.column 等带点形式按段分别处理；
//   - 空段与 * 保持原样；
//   - 段内出现的结束引号会被转义（双写）；
//   - QuoteBracket 已经是 [name] 形式的段保持不变。
func (s QuoteStyle) Quote(name string) string {
	if name == "" || s == QuoteNone {
		return name
	}
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "" || p == "*" {
			continue
		}
		switch s {
		case QuoteDouble:
			parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
		case QuoteBacktick:
			parts[i] = "`" + strings.ReplaceAll(p, "`", "``") + "`"
		case QuoteBracket:
			if strings.HasPrefix(p, "[") && strings.HasSuffix(p, "]") {
				continue
			}
			parts[i] = "[" + strings.ReplaceAll(p, "]", "]]") + "]"
		}
	}
	return strings.Join(parts, ".")
}

// ParseQuoteStyle 解析清单中的引号风格名称
func ParseQuoteStyle(s string) (QuoteStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return QuoteNone, true
	case "double", "ansi":
		return QuoteDouble, true
	case "backtick":
		return QuoteBacktick, true
	case "bracket":
		return QuoteBracket, true
	default:
		return QuoteNone, false
	}
}

// PlaceholderStyle 参数占位符风格
type PlaceholderStyle int

const (
	// PlaceholderQuestion ?（MySQL/SQLite/DB2/H2）
	PlaceholderQuestion PlaceholderStyle = iota
	// PlaceholderDollar $1, $2（Postgres）
	PlaceholderDollar
	// PlaceholderColon :1, :2（Oracle）
	PlaceholderColon
	// PlaceholderAtP @p1, @p2（SQL Server）
	PlaceholderAtP
)

// Rebind 将通用占位符 ? 依次替换为该风格的编号占位符。
//
// 单引号字符串字面量内的 ? 保持不变（'' 转义按两次切换处理）。
// 不识别注释与双引号标识符中的 ?。
func (s PlaceholderStyle) Rebind(query string) string {
	var prefix string
	switch s {
	case PlaceholderDollar:
		prefix = "$"
	case PlaceholderColon:
		prefix = ":"
	case PlaceholderAtP:
		prefix = "@p"
	default:
		return query
	}
	if !strings.Contains(query, "?") {
		return query
	}

	var sb strings.Builder
	sb.Grow(len(query) + 8)
	argIndex := 1
	inLiteral := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inLiteral = !inLiteral
			sb.WriteByte(ch)
		case ch == '?' && !inLiteral:
			sb.WriteString(prefix)
			sb.WriteString(strconv.Itoa(argIndex))
			argIndex++
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// ParsePlaceholderStyle 解析清单中的占位符风格名称
func ParsePlaceholderStyle(s string) (PlaceholderStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "question", "":
		return PlaceholderQuestion, true
	case "dollar":
		return PlaceholderDollar, true
	case "colon":
		return PlaceholderColon, true
	case "atp":
		return PlaceholderAtP, true
	default:
		return PlaceholderQuestion, false
	}
}

// PaginationStyle 分页语法
type PaginationStyle int

const (
	// PaginateLimitOffset LIMIT ? OFFSET ?
	PaginateLimitOffset PaginationStyle = iota
	// PaginateOffsetFetch OFFSET ? ROWS FETCH NEXT ? ROWS ONLY（SQL:2008）
	PaginateOffsetFetch
	// PaginateOffsetFetchOrdered 同 OffsetFetch，但语法要求 ORDER BY（SQL Server）
	PaginateOffsetFetchOrdered
)

// Clause 生成分页子句（以空格开头）与参数。limit/offset <= 0 表示不限制。
func (s PaginationStyle) Clause(limit, offset int, ordered bool) (string, []any) {
	if limit <= 0 && offset <= 0 {
		return "", nil
	}
	var (
		sb   strings.Builder
		args []any
	)
	switch s {
	case PaginateOffsetFetch, PaginateOffsetFetchOrdered:
		if s == PaginateOffsetFetchOrdered && !ordered {
			sb.WriteString(" ORDER BY (SELECT NULL)")
		}
		if offset > 0 {
			sb.WriteString(" OFFSET ? ROWS")
			args = append(args, offset)
		} else {
			sb.WriteString(" OFFSET 0 ROWS")
		}
		if limit > 0 {
			sb.WriteString(" FETCH NEXT ? ROWS ONLY")
			args = append(args, limit)
		}
	default:
		if limit > 0 {
			sb.WriteString(" LIMIT ?")
			args = append(args, limit)
		}
		if offset > 0 {
			sb.WriteString(" OFFSET ?")
			args = append(args, offset)
		}
	}
	return sb.String(), args
}

// ParsePaginationStyle 解析清单中的分页风格名称
func ParsePaginationStyle(s string) (PaginationStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "limit_offset", "":
		return PaginateLimitOffset, true
	case "offset_fetch":
		return PaginateOffsetFetch, true
	case "offset_fetch_ordered":
		return PaginateOffsetFetchOrdered, true
	default:
		return PaginateLimitOffset, false
	}
}

// LockSupport 行锁支持程度
type LockSupport int

const (
	LockNone LockSupport = iota
	LockForUpdate
	LockSkipLocked
)

// Clause 返回行锁子句；不支持 SKIP LOCKED 时退化为 FOR UPDATE
func (l LockSupport) Clause(skipLocked bool) string {
	switch l {
	case LockForUpdate:
		return " FOR UPDATE"
	case LockSkipLocked:
		if skipLocked {
			return " FOR UPDATE SKIP LOCKED"
		}
		return " FOR UPDATE"
	default:
		return ""
	}
}

// ParseLockSupport 解析清单中的行锁名称
func ParseLockSupport(s string) (LockSupport, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return LockNone, true
	case "for_update":
		return LockForUpdate, true
	case "skip_locked":
		return LockSkipLocked, true
	default:
		return LockNone, false
	}
}

// hasLeadingKeyword 判断语句（忽略前导空白与括号）是否以任一关键字开头
func hasLeadingKeyword(query string, keywords []string) bool {
	q := strings.TrimLeft(query, " \t\r\n(")
	for _, kw := range keywords {
		if len(q) < len(kw) || !strings.EqualFold(q[:len(kw)], kw) {
			continue
		}
		if len(q) == len(kw) {
			return true
		}
		next := q[len(kw)]
		if !(next >= 'a' && next <= 'z' || next >= 'A' && next <= 'Z' || next >= '0' && next <= '9' || next == '_') {
			return true
		}
	}
	return false
}

// MessageContains 构造按错误消息关键字（大小写不敏感）匹配的判定函数
func MessageContains(substrings ...string) func(error) bool {
	lowered := make([]string, 0, len(substrings))
	for _, s := range substrings {
		if s = strings.TrimSpace(s); s != "" {
			lowered = append(lowered, strings.ToLower(s))
		}
	}
	return func(err error) bool {
		if err == nil {
			return false
		}
		msg := strings.ToLower(err.Error())
		for _, s := range lowered {
			if strings.Contains(msg, s) {
				return true
			}
		}
		return false
	}
}
