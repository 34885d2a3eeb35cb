package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/arthur-debert/navtree/navtree"
	"github.com/arthur-debert/navtree/navtree/auth"
	"github.com/arthur-debert/navtree/navtree/content"
	"github.com/arthur-debert/navtree/navtree/store"
	"github.com/arthur-debert/navtree/types"
)

// CLI holds the configuration and streams shared by every command
type CLI struct {
	v       *viper.Viper
	rootCmd *cobra.Command
	out     io.Writer
	errOut  io.Writer
	logger  *slog.Logger
	closeLg func()
}

// NewCLI builds the command tree. Configuration comes from flags, NAVTREE_*
// variables (a .env file included) and navtree.yaml, in that order.
func NewCLI(out, errOut io.Writer) *CLI {
	cli := &CLI{v: viper.New(), out: out, errOut: errOut, logger: slog.Default()}
	cli.setupViperConfig()
	cli.createRootCommand()
	cli.addCommands()
	return cli
}

func (cli *CLI) setupViperConfig() {
	_ = godotenv.Load()

	if configFile := os.Getenv("NAVTREE_CONFIG"); configFile != "" {
		cli.v.SetConfigFile(configFile)
	} else {
		cli.v.SetConfigName("navtree")
		cli.v.SetConfigType("yaml")
		cli.v.AddConfigPath(".")
		cli.v.AddConfigPath("$HOME/.navtree")
		cli.v.AddConfigPath("/etc/navtree")
	}

	cli.v.SetEnvPrefix("NAVTREE")
	cli.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	cli.v.AutomaticEnv()

	cli.v.SetDefault("backend", string(store.BackendJSON))
	cli.v.SetDefault("db", "navtree.json")
	cli.v.SetDefault("log-level", "warn")
	cli.v.SetDefault("addr", ":8080")
	cli.v.SetDefault("token-ttl", auth.DefaultTTL)
	cli.v.SetDefault("format", "table")

	_ = cli.v.ReadInConfig()
}

func (cli *CLI) createRootCommand() {
	cli.rootCmd = &cobra.Command{
		Use:   "navtree",
		Short: "navtree - ordered navigation trees for site content",
		Long: `navtree maintains named navigation trees whose nodes point to site
content (articles and links), keeps sibling orderings dense, and serves the
trees over HTTP.

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (NAVTREE_*), including a .env file
3. navtree.yaml (NAVTREE_CONFIG, ., ~/.navtree, /etc/navtree)

Examples:
  navtree tree create main
  navtree node add main --content cms.article:1
  navtree node move main id3 --ref id1 --pos before
  navtree serve --addr :8080 --jwt-secret s3cret`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, closer, err := initLogging(cli.v.GetString("log-level"), cli.v.GetBool("log-stderr"), cli.errOut)
			if err != nil {
				return NewConfigError("initialize logging", err.Error())
			}
			cli.logger, cli.closeLg = logger, closer
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if cli.closeLg != nil {
				cli.closeLg()
			}
		},
	}
	cli.rootCmd.SetOut(cli.out)
	cli.rootCmd.SetErr(cli.errOut)

	flags := cli.rootCmd.PersistentFlags()
	flags.String("backend", string(store.BackendJSON), "Store backend: json|sqlite|postgres")
	flags.StringP("db", "d", "navtree.json", "JSON file or SQLite database path")
	flags.String("dsn", "", "Postgres connection string")
	flags.String("catalog", "", "YAML file with the articles and links to navigate")
	flags.String("log-level", "warn", "Log level: debug|info|warn|error")
	flags.Bool("log-stderr", false, "Also log to stderr")
	flags.StringP("format", "f", "table", "Output format: table|json|yaml")
	flags.String("jwt-secret", "", "HMAC secret signing API tokens")
	flags.Duration("token-ttl", auth.DefaultTTL, "API token lifetime")
	_ = cli.v.BindPFlags(flags)
}

func (cli *CLI) addCommands() {
	cli.rootCmd.AddCommand(
		cli.serveCommand(),
		cli.treeCommand(),
		cli.nodeCommand(),
		cli.navTypeCommand(),
		cli.dispatchCommand(),
		cli.exportCommand(),
		cli.importCommand(),
		cli.tokenCommand(),
	)
}

// Execute runs the command line
func (cli *CLI) Execute(args []string) error {
	cli.rootCmd.SetArgs(args)
	return cli.rootCmd.Execute()
}

// openService opens the configured store and catalog
func (cli *CLI) openService(ctx context.Context, opts ...navtree.Option) (*navtree.Service, *content.Builtins, error) {
	backend := store.Backend(cli.v.GetString("backend"))
	switch backend {
	case store.BackendJSON, store.BackendSQLite, store.BackendPostgres:
	default:
		return nil, nil, NewConfigError("open store", fmt.Sprintf("unknown backend %q", backend),
			"Use --backend json, sqlite or postgres")
	}
	cfg := navtree.Config{
		Store: store.Config{
			Backend: backend,
			Path:    cli.v.GetString("db"),
			DSN:     cli.v.GetString("dsn"),
		},
		Catalog: cli.v.GetString("catalog"),
	}
	svc, builtins, err := navtree.Open(ctx, cfg, append([]navtree.Option{navtree.WithLogger(cli.logger)}, opts...)...)
	if err != nil {
		return nil, nil, WrapError("open store", err)
	}
	return svc, builtins, nil
}

// withService runs fn against a freshly opened service
func (cli *CLI) withService(cmd *cobra.Command, fn func(ctx context.Context, svc *navtree.Service) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, _, err := cli.openService(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	return fn(ctx, svc)
}

// resolveTree accepts a tree id or name
func resolveTree(ctx context.Context, svc *navtree.Service, ref string) (types.Tree, error) {
	tree, err := svc.GetTree(ctx, ref)
	if err == nil || !errors.Is(err, types.ErrNotFound) {
		return tree, err
	}
	return svc.TreeByName(ctx, ref)
}

func (cli *CLI) tokenTTL() time.Duration {
	if ttl := cli.v.GetDuration("token-ttl"); ttl > 0 {
		return ttl
	}
	return auth.DefaultTTL
}
