package extension

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"dbadapter/errors"
)

const (
	// DefaultNamespace 发现单元所在的目录名：<dir>/<namespace>/discover.yaml
	DefaultNamespace = "dbadapter"
	// DiscoverFile 发现单元文件名
	DiscoverFile = "discover.yaml"
	// DefaultSelfPackage 本包安装目录的包名，副本目录形如 dbadapter-1.2.0
	DefaultSelfPackage = "dbadapter"

	EnvNamespace   = "DBADAPTER_NAMESPACE"
	EnvPath        = "DBADAPTER_PATH"
	EnvPackages    = "DBADAPTER_PACKAGES"
	EnvSelf        = "DBADAPTER_SELF"
	EnvSelfPackage = "DBADAPTER_SELF_PACKAGE"
	EnvDebug       = "DBADAPTER_DEBUG"
)

// Config 连接配置，作为第二个参数传给 NameAndConfig 匹配器
type Config map[string]any

// Has 是否包含指定键
func (c Config) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// String 以字符串形式读取配置，缺失时返回空字符串
func (c Config) String(key string) string {
	v, ok := c[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Bool 读取布尔配置，支持 bool 与 "true"/"1"/"yes"/"on" 字符串
func (c Config) Bool(key string) bool {
	switch v := c[key].(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true
		}
	case int:
		return v != 0
	}
	return false
}

// LoaderConfig 扩展发现配置
type LoaderConfig struct {
	// Namespace 发现单元目录名，默认 dbadapter
	Namespace string `yaml:"namespace"`
	// SearchPaths 普通文件系统搜索路径（未配置 PackagesRoot 时使用）
	SearchPaths []string `yaml:"search_paths"`
	// PackagesRoot 已安装扩展包的根目录，每个子目录为一个包
	PackagesRoot string `yaml:"packages_root"`
	// SelfRoot 本包的安装目录；本包的其他安装副本会被跳过
	SelfRoot string `yaml:"self_root"`
	// SelfPackage 本包的包名，与 Namespace 无关；默认 dbadapter
	SelfPackage string `yaml:"self_package"`
	// Debug 为 true 时在标准输出打印每个被加载的单元
	Debug bool `yaml:"debug"`
}

// DefaultLoaderConfig 返回默认配置
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{Namespace: DefaultNamespace, SelfPackage: DefaultSelfPackage}
}

// LoadLoaderConfig 从 YAML 文件读取配置，缺省项使用默认值
func LoadLoaderConfig(path string) (LoaderConfig, error) {
	cfg := DefaultLoaderConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WrapError(err, errors.ErrCodeInvalidInput, "读取扩展配置失败: "+path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapError(err, errors.ErrCodeInvalidInput, "解析扩展配置失败: "+path)
	}
	return cfg.withDefaults(), nil
}

// LoaderConfigFromEnv 从环境变量读取配置
//
//	DBADAPTER_NAMESPACE  发现单元目录名
//	DBADAPTER_PATH       搜索路径，按系统路径分隔符分割
//	DBADAPTER_PACKAGES   已安装扩展包根目录
//	DBADAPTER_SELF       本包安装目录
//	DBADAPTER_SELF_PACKAGE 本包包名
//	DBADAPTER_DEBUG      打印加载的单元
func LoaderConfigFromEnv() LoaderConfig {
	return loaderConfigFromLookup(os.LookupEnv)
}

func loaderConfigFromLookup(lookup func(string) (string, bool)) LoaderConfig {
	var cfg LoaderConfig
	if v, ok := lookup(EnvNamespace); ok {
		cfg.Namespace = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvPath); ok && v != "" {
		for _, p := range filepath.SplitList(v) {
			if p = strings.TrimSpace(p); p != "" {
				cfg.SearchPaths = append(cfg.SearchPaths, p)
			}
		}
	}
	if v, ok := lookup(EnvPackages); ok {
		cfg.PackagesRoot = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvSelf); ok {
		cfg.SelfRoot = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvSelfPackage); ok {
		cfg.SelfPackage = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvDebug); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		cfg.Debug = err == nil && b
	}
	return cfg
}

// Merge 用 override 中的非零值覆盖当前配置
func (c LoaderConfig) Merge(override LoaderConfig) LoaderConfig {
	out := c
	if override.Namespace != "" {
		out.Namespace = override.Namespace
	}
	if len(override.SearchPaths) > 0 {
		out.SearchPaths = append([]string(nil), override.SearchPaths...)
	}
	if override.PackagesRoot != "" {
		out.PackagesRoot = override.PackagesRoot
	}
	if override.SelfRoot != "" {
		out.SelfRoot = override.SelfRoot
	}
	if override.SelfPackage != "" {
		out.SelfPackage = override.SelfPackage
	}
	if override.Debug {
		out.Debug = true
	}
	return out
}

func (c LoaderConfig) withDefaults() LoaderConfig {
	if c.Namespace == "" {
		c.Namespace = DefaultNamespace
	}
	if c.SelfPackage == "" {
		c.SelfPackage = DefaultSelfPackage
	}
	return c
}
