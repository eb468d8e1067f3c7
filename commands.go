package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/wagnerlima/mozichem-hub/internal/catalog"
	"github.com/wagnerlima/mozichem-hub/internal/config"
	"github.com/wagnerlima/mozichem-hub/internal/logging"
	"github.com/wagnerlima/mozichem-hub/internal/registry"
	"github.com/wagnerlima/mozichem-hub/internal/server"
)

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"catalog":           "catalog",
	"transport":         "transport",
	"host":              "host",
	"port":              "port",
	"path":              "path",
	"shutdown-timeout":  "shutdown_timeout",
	"log-level":         "log.level",
	"log-format":        "log.format",
	"reference-content": "references.content_file",
	"reference-config":  "references.config_file",
	"catalogs":          "aggregate.catalogs",
}

type app struct {
	configFile string
	cfg        config.Config
	logger     zerolog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "mozichem-hub",
		Short:         "MoziChem MCP hub: thermodynamic tool catalogs over MCP",
		Version:       catalog.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "json", "log format (json, console)")

	root.AddCommand(a.serveCmd(), a.aggregateCmd(), a.catalogsCmd(), a.toolsCmd())
	return root
}

func (a *app) load(cmd *cobra.Command) error {
	v, err := config.New(a.configFile)
	if err != nil {
		return err
	}
	if err := bindFlags(v, cmd.Flags()); err != nil {
		return err
	}
	if a.cfg, err = config.Load(v); err != nil {
		return err
	}
	a.logger = logging.New(logging.Options{
		Level:  a.cfg.Log.Level,
		Format: a.cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		f := flags.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

func transportFlags(fs *pflag.FlagSet) {
	fs.String("host", "127.0.0.1", "HTTP host")
	fs.Int("port", 8000, "HTTP port")
	fs.String("path", "/mcp", "MCP mount path")
	fs.Duration("shutdown-timeout", config.DefaultShutdownTimeout, "graceful shutdown timeout")
	fs.String("reference-content", "", "reference content file loaded at startup")
	fs.String("reference-config", "", "reference config file loaded at startup")
}

// newCatalog builds a catalog with the startup references of the config.
func (a *app) newCatalog(name string) (*catalog.Catalog, error) {
	content, cfgText, err := a.cfg.ReadReferenceFiles()
	if err != nil {
		return nil, err
	}
	return catalog.New(name, a.logger, catalog.WithReferences(content, cfgText))
}

func signalContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func (a *app) serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve one catalog on stdio or streamable HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.newCatalog(a.cfg.Catalog)
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			if err := server.Run(ctx, c, a.cfg, a.logger); err != nil {
				return err
			}
			a.logger.Info().Str("catalog", c.Name()).Msg("shutdown complete")
			return nil
		},
	}
	cmd.Flags().String("catalog", "", "catalog name ("+strings.Join(registry.Names(), ", ")+")")
	cmd.Flags().String("transport", config.TransportStdio, "transport ("+config.TransportStdio+", "+config.TransportStreamableHTTP+")")
	transportFlags(cmd.Flags())
	return cmd
}

func (a *app) aggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Serve several catalogs under one streamable HTTP server",
		Long: `Mount each catalog at /<catalog-name><path> on one HTTP server.
Without --catalogs every registered catalog is mounted. GET /healthz lists them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names := a.cfg.Aggregate.Catalogs
			if len(names) == 0 {
				names = registry.Names()
			}
			cs := make([]*catalog.Catalog, 0, len(names))
			for _, name := range names {
				c, err := a.newCatalog(name)
				if err != nil {
					for _, built := range cs {
						_ = built.Stop()
					}
					return err
				}
				cs = append(cs, c)
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return server.NewAggregator(cs, a.logger).Serve(ctx, a.cfg)
		},
	}
	cmd.Flags().StringSlice("catalogs", nil, "catalogs to mount (default: all)")
	transportFlags(cmd.Flags())
	return cmd
}

func (a *app) catalogsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalogs",
		Short: "List the available catalogs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tIMPLEMENTATION\tDESCRIPTION")
			for _, c := range registry.Catalogs() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", c.Name, c.Implementation, c.Description)
			}
			return w.Flush()
		},
	}
}

func (a *app) toolsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools <catalog>",
		Short: "List the tools of a catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := registry.Lookup(args[0])
			if err != nil {
				return err
			}
			descriptors, err := registry.Descriptor(info.Name)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(descriptors)
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tTAGS")
			for _, d := range descriptors {
				fmt.Fprintf(w, "%s\t%s\n", d.Name, strings.Join(d.Tags, ","))
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print full descriptors as JSON")
	return cmd
}
