package extension

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"dbadapter/data/db/dialect"
	"dbadapter/errors"
)

// Manifest 发现单元文件（<namespace>/discover.yaml）的内容
type Manifest struct {
	// Requires 加载前必须已注册的方言
	Requires []string      `yaml:"requires"`
	Dialects []DialectSpec `yaml:"dialects"`
}

// DialectSpec 清单中的单个方言声明
type DialectSpec struct {
	Name    string         `yaml:"name"`
	Match   string         `yaml:"match"`
	When    map[string]any `yaml:"when"`
	Extends string         `yaml:"extends"`

	Quote           string   `yaml:"quote"`
	Placeholder     string   `yaml:"placeholder"`
	Pagination      string   `yaml:"pagination"`
	DeleteLimit     *bool    `yaml:"delete_limit"`
	Locking         string   `yaml:"locking"`
	UniqueViolation []string `yaml:"unique_violation"`
	QueryPrefixes   []string `yaml:"query_prefixes"`
	LastInsertID    *string  `yaml:"last_insert_id"`
	TableTypes      []string `yaml:"table_types"`
	Capabilities    []string `yaml:"capabilities"`
}

// ParseManifest 解析并校验清单
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.WrapError(err, errors.ErrCodeManifest, "清单格式错误")
	}
	for i, spec := range m.Dialects {
		if _, _, err := spec.compile(); err != nil {
			return nil, errors.WrapError(err, errors.ErrCodeManifest,
				fmt.Sprintf("清单第 %d 个方言声明无效", i+1))
		}
	}
	return &m, nil
}

// Apply 校验依赖后按声明顺序注册全部方言；依赖缺失时不注册任何方言
func (m *Manifest) Apply(reg *Registry) error {
	for _, req := range m.Requires {
		if _, ok := reg.Lookup(dialect.Name(req)); !ok {
			return errors.NewError(errors.ErrCodeDependency, "缺少依赖方言: "+req).
				WithContext("requires", req)
		}
	}

	declared := make(map[string]bool, len(m.Dialects))
	for _, spec := range m.Dialects {
		if spec.Extends == "" || declared[spec.Extends] {
			declared[spec.Name] = true
			continue
		}
		if _, ok := reg.Lookup(dialect.Name(spec.Extends)); !ok {
			return errors.NewError(errors.ErrCodeDependency, "继承的方言不存在: "+spec.Extends).
				WithContext("dialect", spec.Name)
		}
		declared[spec.Name] = true
	}

	for _, spec := range m.Dialects {
		matcher, opts, err := spec.compile()
		if err != nil {
			return errors.WrapError(err, errors.ErrCodeManifest, "方言声明无效: "+spec.Name)
		}
		if spec.Extends != "" {
			parent, _ := reg.Lookup(dialect.Name(spec.Extends))
			opts = append([]dialect.Option{dialect.WithParent(parent.Bundle())}, opts...)
		}
		reg.Register(dialect.Name(spec.Name), matcher, opts...)
	}
	return nil
}

// compile 构造匹配器与能力选项
func (s DialectSpec) compile() (Matcher, []dialect.Option, error) {
	if s.Name == "" {
		return Matcher{}, nil, fmt.Errorf("name is required")
	}
	if s.Match == "" {
		return Matcher{}, nil, fmt.Errorf("dialect %s: match is required", s.Name)
	}
	re, err := regexp.Compile(s.Match)
	if err != nil {
		return Matcher{}, nil, fmt.Errorf("dialect %s: invalid match: %w", s.Name, err)
	}

	var opts []dialect.Option
	if s.Quote != "" {
		style, ok := dialect.ParseQuoteStyle(s.Quote)
		if !ok {
			return Matcher{}, nil, fmt.Errorf("dialect %s: unknown quote style %q", s.Name, s.Quote)
		}
		opts = append(opts, dialect.WithQuoteStyle(style))
	}
	if s.Placeholder != "" {
		style, ok := dialect.ParsePlaceholderStyle(s.Placeholder)
		if !ok {
			return Matcher{}, nil, fmt.Errorf("dialect %s: unknown placeholder style %q", s.Name, s.Placeholder)
		}
		opts = append(opts, dialect.WithPlaceholders(style))
	}
	if s.Pagination != "" {
		style, ok := dialect.ParsePaginationStyle(s.Pagination)
		if !ok {
			return Matcher{}, nil, fmt.Errorf("dialect %s: unknown pagination %q", s.Name, s.Pagination)
		}
		opts = append(opts, dialect.WithPagination(style))
	}
	if s.DeleteLimit != nil {
		opts = append(opts, dialect.WithDeleteLimit(*s.DeleteLimit))
	}
	if s.Locking != "" {
		l, ok := dialect.ParseLockSupport(s.Locking)
		if !ok {
			return Matcher{}, nil, fmt.Errorf("dialect %s: unknown locking %q", s.Name, s.Locking)
		}
		opts = append(opts, dialect.WithLocking(l))
	}
	if len(s.UniqueViolation) > 0 {
		opts = append(opts, dialect.WithUniqueViolationMessages(s.UniqueViolation...))
	}
	if len(s.QueryPrefixes) > 0 {
		opts = append(opts, dialect.WithQueryPrefixes(s.QueryPrefixes...))
	}
	if s.LastInsertID != nil {
		opts = append(opts, dialect.WithLastInsertIDQuery(*s.LastInsertID))
	}
	if len(s.TableTypes) > 0 {
		opts = append(opts, dialect.WithTableTypes(s.TableTypes...))
	}
	if len(s.Capabilities) > 0 {
		caps := make([]dialect.Capability, len(s.Capabilities))
		for i, c := range s.Capabilities {
			caps[i] = dialect.Capability(c)
		}
		opts = append(opts, dialect.WithCapabilities(caps...))
	}

	if len(s.When) == 0 {
		return NameOnly(re.MatchString), opts, nil
	}
	when := make(map[string]string, len(s.When))
	for k, v := range s.When {
		when[k] = fmt.Sprint(v)
	}
	return NameAndConfig(func(driverName string, cfg Config) bool {
		if !re.MatchString(driverName) {
			return false
		}
		for k, v := range when {
			if cfg.String(k) != v {
				return false
			}
		}
		return true
	}), opts, nil
}

type manifestUnit struct {
	id   string
	read func() ([]byte, error)
}

func (u *manifestUnit) ID() string { return u.id }

func (u *manifestUnit) Load(reg *Registry) error {
	data, err := u.read()
	if err != nil {
		return err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return err
	}
	return m.Apply(reg)
}

// ManifestFile 以文件路径构造清单单元，ID 为规范化后的路径
func ManifestFile(path string) Unit {
	id := canonicalPath(path)
	return &manifestUnit{id: id, read: func() ([]byte, error) { return os.ReadFile(path) }}
}

// ManifestBytes 以内存数据构造清单单元
func ManifestBytes(id string, data []byte) Unit {
	buf := append([]byte(nil), data...)
	return &manifestUnit{id: id, read: func() ([]byte, error) { return buf, nil }}
}
