package cli

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sqlserver "github.com/jchilcher/sqlserver"
	"github.com/jchilcher/sqlserver/pkg/config"
)

func version() string {
	return "v0.1.0"
}

func help() string {
	return `sqlserver runs common queries and commands against a SQL Server database over ODBC.

Connection settings come from flags, or from SQLSERVER_SERVER, SQLSERVER_DATABASE,
SQLSERVER_USERNAME, SQLSERVER_PASSWORD and SQLSERVER_DRIVER (optionally read from
the --env-file). Flags win over the environment.

Examples:
  sqlserver select "SELECT TOP 10 * FROM dbo.[users]"
  sqlserver exec "UPDATE dbo.[users] SET [active] = ? WHERE [id] = ?" 0 42
  sqlserver insert users name=Ada email=ada@example.com
  sqlserver upsert users id 42 name=Ada
  sqlserver bulk orders orders.csv`
}

// rootOptions carries the persistent flags shared by every command.
type rootOptions struct {
	cfg      config.Config
	envFile  string
	logLevel string
	null     string

	// opener is nil outside tests.
	opener sqlserver.Opener
}

// config merges the environment (and env file) with any flags that were set.
func (o *rootOptions) config() (*config.Config, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		dst *string
		src string
	}{
		{&cfg.Server, o.cfg.Server},
		{&cfg.Database, o.cfg.Database},
		{&cfg.Username, o.cfg.Username},
		{&cfg.Password, o.cfg.Password},
		{&cfg.Driver, o.cfg.Driver},
	} {
		if f.src != "" {
			*f.dst = f.src
		}
	}
	return cfg, nil
}

// withClient runs fn with a connected client that is closed afterwards.
func (o *rootOptions) withClient(ctx context.Context, fn func(*sqlserver.Client) error) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	var opts []sqlserver.Option
	if o.opener != nil {
		opts = append(opts, sqlserver.WithOpener(o.opener))
	}
	return sqlserver.With(ctx, cfg, fn, opts...)
}

// value maps the null marker to nil.
func (o *rootOptions) value(s string) interface{} {
	if o.null != "" && s == o.null {
		return nil
	}
	return s
}

// NewVersionCmd builds the `version` command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println(version())
		},
	}
}

// NewRootCmd builds the top-level `sqlserver` command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "sqlserver",
		Short:         "sqlserver: simple queries and commands for SQL Server",
		Long:          help(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := log.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			log.SetLevel(lvl)
			log.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.cfg.Server, "server", "", "database server host")
	pf.StringVar(&opts.cfg.Database, "database", "", "database name")
	pf.StringVar(&opts.cfg.Username, "username", "", "login user")
	pf.StringVar(&opts.cfg.Password, "password", "", "login password")
	pf.StringVar(&opts.cfg.Driver, "driver", "", `ODBC driver name, e.g. "ODBC Driver 17 for SQL Server"`)
	pf.StringVar(&opts.envFile, "env-file", ".env", "file with SQLSERVER_* variables")
	pf.StringVar(&opts.logLevel, "log-level", "warn",
		"log level: trace, debug, info, warn, error, fatal, or panic")
	pf.StringVar(&opts.null, "null", "NULL", "value that is bound as SQL NULL (empty disables)")

	root.AddCommand(newSelectCmd(opts))
	root.AddCommand(newExecCmd(opts))
	root.AddCommand(newInsertCmd(opts))
	root.AddCommand(newUpsertCmd(opts))
	root.AddCommand(newBulkCmd(opts))
	root.AddCommand(NewVersionCmd())
	return root
}
