package extension

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"dbadapter/logging"
)

// Source 扩展单元来源
type Source interface {
	Name() string
	// Units 枚举候选单元；没有候选不是错误
	Units() ([]Unit, error)
}

// PackageSource 在已安装扩展包中查找发现单元：<Root>/<pkg>/<Namespace>/discover.yaml。
//
// 包目录名为 <SelfPackage> 或 <SelfPackage>-<版本号>（版本号以数字开头）的视为本包的安装副本，
// 只有位于 SelfRoot 之下的副本会被加载；SelfRoot 为空时全部跳过，
// 本包自身的方言由编译期目录提供。dbadapter-redshift 这类第三方包不受影响。
type PackageSource struct {
	Root        string
	Namespace   string
	SelfRoot    string
	SelfPackage string
	Logger      logging.Logger
}

// Name 实现 Source
func (s *PackageSource) Name() string { return "packages:" + s.Root }

// Units 实现 Source
func (s *PackageSource) Units() ([]Unit, error) {
	ns := namespaceOrDefault(s.Namespace)
	matches, err := filepath.Glob(filepath.Join(s.Root, "*", ns, DiscoverFile))
	if err != nil {
		return nil, err
	}

	selfRoot := ""
	if s.SelfRoot != "" {
		selfRoot = canonicalPath(s.SelfRoot)
	}
	selfPkg := s.SelfPackage
	if selfPkg == "" {
		selfPkg = DefaultSelfPackage
	}
	selfName := regexp.MustCompile(`^` + regexp.QuoteMeta(selfPkg) + `(-\d[^/\\]*)?$`)

	seen := make(map[string]bool, len(matches))
	units := make([]Unit, 0, len(matches))
	for _, m := range matches {
		id := canonicalPath(m)
		if seen[id] {
			continue
		}
		seen[id] = true

		pkgDir := filepath.Dir(filepath.Dir(m))
		if selfName.MatchString(filepath.Base(pkgDir)) && !within(id, selfRoot) {
			s.logger().Debug(context.Background(), "跳过本包的其他安装副本",
				logging.String("path", id))
			continue
		}
		units = append(units, ManifestFile(m))
	}
	return units, nil
}

func (s *PackageSource) logger() logging.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return logging.GetLogger()
}

// PathSource 在普通搜索路径中查找 <dir>/<Namespace>/discover.yaml
type PathSource struct {
	Dirs      []string
	Namespace string
}

// Name 实现 Source
func (s *PathSource) Name() string { return "path:" + strings.Join(s.Dirs, string(os.PathListSeparator)) }

// Units 实现 Source；文件不存在时跳过，其他 I/O 错误返回
func (s *PathSource) Units() ([]Unit, error) {
	ns := namespaceOrDefault(s.Namespace)
	seen := make(map[string]bool, len(s.Dirs))
	var units []Unit
	for _, dir := range s.Dirs {
		p := filepath.Join(dir, ns, DiscoverFile)
		info, err := os.Stat(p)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		if info.IsDir() {
			continue
		}
		id := canonicalPath(p)
		if seen[id] {
			continue
		}
		seen[id] = true
		units = append(units, ManifestFile(p))
	}
	return units, nil
}

func namespaceOrDefault(ns string) string {
	if ns == "" {
		return DefaultNamespace
	}
	return ns
}

// canonicalPath 绝对路径并解析符号链接；解析失败时退回绝对路径
func canonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = filepath.Clean(p)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

func within(path, root string) bool {
	if root == "" {
		return false
	}
	return path == root || strings.HasPrefix(path, root+string(filepath.Separator))
}
