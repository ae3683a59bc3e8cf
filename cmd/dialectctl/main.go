// dialectctl 查看方言注册表：列出已发现的方言、按驱动名解析方言、执行扩展发现。
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	// 常用驱动，便于 resolve 与 sql.Drivers 对照
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	_ "dbadapter/data/db/dialect/builtin"
	"dbadapter/extension"
	"dbadapter/logging"
)

type rootOptions struct {
	configFile  string
	debug       bool
	logLevel    string
	redisAddr   string
	redisPrefix string
	natsURL     string

	catalog *extension.Catalog
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := &rootOptions{}
	root := &cobra.Command{
		Use:           "dialectctl",
		Short:         "Inspect the SQL dialect registry",
		Long:          "Discover dialect extensions, list registered dialects and resolve driver names to dialects.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetLogger(logging.NewStdLogger("dialectctl").WithLevel(logging.ParseLevel(o.logLevel)))
		},
	}
	root.SetOut(out)
	root.SetErr(out)

	flags := root.PersistentFlags()
	flags.StringVar(&o.configFile, "config", "", "Path to loader config file (YAML)")
	flags.BoolVar(&o.debug, "debug", false, "Print each extension unit as it is loaded")
	flags.StringVar(&o.logLevel, "log-level", "warn", "Log level: debug|info|warn|error")
	flags.StringVar(&o.redisAddr, "redis-addr", "", "Also discover manifests stored in Redis at this address")
	flags.StringVar(&o.redisPrefix, "redis-prefix", "", "Redis key prefix for manifests")
	flags.StringVar(&o.natsURL, "nats-url", "", "Publish registry events to this NATS server")

	root.AddCommand(newListCmd(o), newResolveCmd(o), newDiscoverCmd(o))
	return root
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
