package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/iov-one/threshold"
	"github.com/iov-one/threshold/app"
	"github.com/iov-one/threshold/errors"
	"github.com/iov-one/threshold/store/sqlstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagHome     = "home"
	flagConfig   = "config"
	flagLogLevel = "log_level"
	flagAs       = "as"
	flagDB       = "db"
)

// cli holds the state shared by all commands of one invocation.
type cli struct {
	v      *viper.Viper
	out    io.Writer
	logger log.Logger
}

// NewRootCmd returns the thresholdd command tree writing results to out and
// logs to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	c := &cli{
		v:      viper.New(),
		out:    out,
		logger: log.NewNopLogger(),
	}
	root := &cobra.Command{
		Use:           "thresholdd",
		Short:         "N of M threshold wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd, errOut)
		},
	}

	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".threshold")
	flags := root.PersistentFlags()
	flags.String(flagHome, defaultHome, "directory to store files under")
	flags.String(flagConfig, "", "config file (default $home/config.yaml)")
	flags.String(flagDB, "wallet.db", "database file, relative to home")
	flags.String(flagLogLevel, "error", "log level: debug, info, error or none")
	flags.String(flagAs, "", "address of the acting principal")
	for _, name := range []string{flagHome, flagDB, flagLogLevel, flagAs} {
		if err := c.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	c.v.SetDefault("audit.record_failures", true)
	c.v.SetDefault("metrics.enabled", false)
	c.v.SetDefault("metrics.textfile", "metrics.prom")

	root.AddCommand(
		c.initCmd(),
		c.depositCmd(),
		c.submitCmd(),
		c.confirmCmd(),
		c.revokeCmd(),
		c.executeCmd(),
		c.showCmd(),
		c.listCmd(),
		c.principalsCmd(),
		c.eventsCmd(),
		c.verifyCmd(),
		c.versionCmd(),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, errOut io.Writer) error {
	c.v.SetEnvPrefix("threshold")
	c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.v.AutomaticEnv()

	cfgFile, _ := cmd.Flags().GetString(flagConfig)
	if cfgFile != "" {
		c.v.SetConfigFile(cfgFile)
	} else {
		c.v.AddConfigPath(c.v.GetString(flagHome))
		c.v.SetConfigName("config")
	}
	if err := c.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return errors.Wrap(errors.ErrConfiguration, err.Error())
		}
	}

	level := c.v.GetString(flagLogLevel)
	if level == "" || level == "none" {
		return nil
	}
	allow, err := log.AllowLevel(level)
	if err != nil {
		return errors.Wrap(errors.ErrConfiguration, err.Error())
	}
	c.logger = log.NewFilter(log.NewTMLogger(log.NewSyncWriter(errOut)), allow).
		With("module", "threshold")
	return nil
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := io.WriteString(c.out, threshold.Version()+"\n")
			return err
		},
	}
}

func (c *cli) context() threshold.Context {
	return threshold.WithLogger(context.Background(), c.logger)
}

// open runs fn with the wallet kept in the configured database.
//
// When metrics are enabled, the collected values are written to a text file
// in the prometheus exposition format once fn returns, ready for a node
// exporter textfile collector.
func (c *cli) open(fn func(w *app.Wallet) error) error {
	db, err := c.openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []app.Option{app.WithFailureRecords(c.v.GetBool("audit.record_failures"))}
	var reg *prometheus.Registry
	if c.v.GetBool("metrics.enabled") {
		reg = prometheus.NewRegistry()
		opts = append(opts, app.WithRegisterer(reg))
	}
	w, err := app.New(db, opts...)
	if err != nil {
		return err
	}
	err = fn(w)
	if reg != nil {
		if werr := prometheus.WriteToTextfile(c.homePath(c.v.GetString("metrics.textfile")), reg); werr != nil {
			c.logger.Error("cannot write metrics", "err", werr)
		}
	}
	return err
}

// homePath resolves relative paths against the home directory.
func (c *cli) homePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.v.GetString(flagHome), path)
}

func (c *cli) openDB() (*sqlstore.Store, error) {
	home := c.v.GetString(flagHome)
	if err := os.MkdirAll(home, 0o700); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return sqlstore.Open(c.homePath(c.v.GetString(flagDB)))
}

// caller returns the acting principal.
func (c *cli) caller() (threshold.Address, error) {
	raw := c.v.GetString(flagAs)
	if raw == "" {
		return nil, errors.Wrap(errors.ErrInput, "--as is required")
	}
	return threshold.ParseAddress(raw)
}

func (c *cli) print(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(errors.ErrEncoding, err.Error())
	}
	return nil
}
