package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"dbadapter/data/db/dialect"
	"dbadapter/extension"
	"dbadapter/extension/natsnotify"
	"dbadapter/extension/redissource"
)

// session 一次命令执行使用的注册表与加载器
type session struct {
	registry *extension.Registry
	loader   *extension.Loader
	closers  []func() error
}

func (s *session) Close() {
	for _, c := range s.closers {
		_ = c()
	}
}

func (o *rootOptions) loaderConfig() (extension.LoaderConfig, error) {
	cfg := extension.DefaultLoaderConfig()
	if o.configFile != "" {
		fileCfg, err := extension.LoadLoaderConfig(o.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}
	cfg = cfg.Merge(extension.LoaderConfigFromEnv())
	if o.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func (o *rootOptions) open(out io.Writer) (*session, error) {
	cfg, err := o.loaderConfig()
	if err != nil {
		return nil, err
	}

	s := &session{registry: extension.NewRegistry()}
	opts := []extension.LoaderOption{extension.WithOutput(out)}
	if o.catalog != nil {
		opts = append(opts, extension.WithCatalog(o.catalog))
	}

	if o.redisAddr != "" {
		src, err := redissource.New(redissource.Config{Addr: o.redisAddr, Prefix: o.redisPrefix})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, src.Close)
		opts = append(opts, extension.WithSources(src))
	}
	if o.natsURL != "" {
		n, err := natsnotify.New(natsnotify.Config{URL: o.natsURL})
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, n.Close)
		opts = append(opts, n.Attach(s.registry))
	}

	s.loader = extension.NewLoader(s.registry, cfg, opts...)
	return s, nil
}

func newListCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered dialects in resolution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.loader.Discover(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tARITY\tCAPABILITIES")
			for _, d := range s.registry.Descriptors() {
				fmt.Fprintf(w, "%s\t%d\t%s\n", d.Name(), d.Arity(), joinCapabilities(d.Behavior()))
			}
			return w.Flush()
		},
	}
}

func newResolveCmd(o *rootOptions) *cobra.Command {
	var sets []string
	cmd := &cobra.Command{
		Use:   "resolve <driver-name>",
		Short: "Resolve a driver name to a dialect",
		Long:  "Resolve a driver name, optionally with connection config entries (--set key=value), to the first matching dialect.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := parseSets(sets)
			if err != nil {
				return err
			}
			s, err := o.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.loader.Discover(); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			d, ok := s.registry.Match(args[0], cfg)
			if !ok {
				fmt.Fprintf(out, "%s: no dialect matched, using %s\n", args[0], dialect.NameGeneric)
				return nil
			}
			beh := d.Behavior()
			fmt.Fprintf(out, "%s: %s\n", args[0], d.Name())
			fmt.Fprintf(out, "  placeholder:   %s\n", beh.Rebind("?"))
			fmt.Fprintf(out, "  quote:         %s\n", beh.QuoteIdentifier("t"))
			fmt.Fprintf(out, "  delete limit:  %t\n", beh.SupportsDeleteLimit())
			fmt.Fprintf(out, "  capabilities:  %s\n", joinCapabilities(beh))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Connection config entry key=value (repeatable)")
	return cmd
}

func newDiscoverCmd(o *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Run extension discovery and print loaded units",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer s.Close()

			for _, src := range s.loader.Sources() {
				fmt.Fprintf(cmd.OutOrStdout(), "source %s\n", src.Name())
			}
			loaded, err := s.loader.Discover()
			if err != nil {
				return err
			}
			for _, id := range loaded {
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %s\n", id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d dialects registered\n", s.registry.Len())
			return nil
		},
	}
}

func parseSets(sets []string) (extension.Config, error) {
	cfg := extension.Config{}
	for _, kv := range sets {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, fmt.Errorf("invalid --set %q, expected key=value", kv)
		}
		cfg[strings.TrimSpace(k)] = v
	}
	return cfg, nil
}

func joinCapabilities(beh dialect.Behavior) string {
	caps := beh.Capabilities().List()
	if len(caps) == 0 {
		return "-"
	}
	parts := make([]string, len(caps))
	for i, c := range caps {
		parts[i] = string(c)
	}
	return strings.Join(parts, ",")
}
