package extension

import (
	"context"
	"fmt"

	"dbadapter/data/db/dialect"
	"dbadapter/logging"
)

type candidate struct {
	desc    *Descriptor
	matcher Matcher
}

func (r *Registry) snapshot() []candidate {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]candidate, len(r.ordered))
	for i, d := range r.ordered {
		out[i] = candidate{desc: d, matcher: d.matcher}
	}
	return out
}

// Match 按注册顺序返回第一个匹配 driverName 的方言描述。
//
// 先注册者优先，不做评分。匹配器 panic 时记录告警并视为不匹配，继续尝试下一个方言。
func (r *Registry) Match(driverName string, cfg Config) (*Descriptor, bool) {
	for _, c := range r.snapshot() {
		if r.tryMatch(c, driverName, cfg) {
			return c.desc, true
		}
	}
	return nil, false
}

// Resolve 返回第一个匹配方言的能力集合，没有匹配时返回 nil 与 false
func (r *Registry) Resolve(driverName string, cfg Config) (*dialect.Bundle, bool) {
	d, ok := r.Match(driverName, cfg)
	if !ok {
		return nil, false
	}
	return d.bundle, true
}

// Bind 解析方言并返回组合后的行为；没有匹配时返回通用行为与 false
func (r *Registry) Bind(driverName string, cfg Config) (dialect.Behavior, bool) {
	d, ok := r.Match(driverName, cfg)
	if !ok {
		return dialect.Generic(), false
	}
	return d.Behavior(), true
}

// tryMatch 以正确的参数形态调用匹配器并吸收 panic
func (r *Registry) tryMatch(c candidate, driverName string, cfg Config) (matched bool) {
	defer func() {
		if rec := recover(); rec != nil {
			matched = false
			r.logger.Warn(context.Background(), "方言匹配器异常，视为不匹配",
				logging.String("dialect", string(c.desc.name)),
				logging.String("driver", driverName),
				logging.String("panic", fmt.Sprint(rec)))
		}
	}()
	return c.matcher.Match(driverName, cfg)
}
