package extension

import (
	"regexp"
	"strings"
)

type matcherKind int

const (
	matchNever matcherKind = iota
	matchName
	matchNameAndConfig
)

// Matcher 判定驱动名（以及可选的连接配置）是否对应某个方言。
//
// 两种形态在注册时显式选择：
//   - NameOnly：只接收驱动名；
//   - NameAndConfig：同时接收驱动名与连接配置。
//
// 零值 Matcher 永不匹配。
type Matcher struct {
	kind     matcherKind
	byName   func(driverName string) bool
	byConfig func(driverName string, cfg Config) bool
}

// NameOnly 构造只依据驱动名判断的匹配器
func NameOnly(fn func(driverName string) bool) Matcher {
	if fn == nil {
		return Matcher{}
	}
	return Matcher{kind: matchName, byName: fn}
}

// NameAndConfig 构造依据驱动名与连接配置判断的匹配器
func NameAndConfig(fn func(driverName string, cfg Config) bool) Matcher {
	if fn == nil {
		return Matcher{}
	}
	return Matcher{kind: matchNameAndConfig, byConfig: fn}
}

// NamePattern 驱动名匹配正则（大小写不敏感）。pattern 非法时 panic，仅用于编译期已知的表达式。
func NamePattern(pattern string) Matcher {
	re := regexp.MustCompile("(?i)(?:" + pattern + ")")
	return NameOnly(re.MatchString)
}

// NameContains 驱动名包含任一子串（大小写不敏感）
func NameContains(substrings ...string) Matcher {
	lowered := make([]string, len(substrings))
	for i, s := range substrings {
		lowered[i] = strings.ToLower(s)
	}
	return NameOnly(func(driverName string) bool {
		name := strings.ToLower(driverName)
		for _, s := range lowered {
			if s != "" && strings.Contains(name, s) {
				return true
			}
		}
		return false
	})
}

// Arity 返回匹配函数的参数个数：1、2，零值为 0
func (m Matcher) Arity() int {
	switch m.kind {
	case matchName:
		return 1
	case matchNameAndConfig:
		return 2
	default:
		return 0
	}
}

// Match 按匹配器形态调用判定函数
func (m Matcher) Match(driverName string, cfg Config) bool {
	switch m.kind {
	case matchName:
		return m.byName(driverName)
	case matchNameAndConfig:
		if cfg == nil {
			cfg = Config{}
		}
		return m.byConfig(driverName, cfg)
	default:
		return false
	}
}
