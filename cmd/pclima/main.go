package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"pclima/internal/model"
	"pclima/internal/providers"
	"pclima/internal/providers/pclima"
	"pclima/internal/store"
	"pclima/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "pclima:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "pclima",
		Short:        "Download climate datasets from the PCBr portal",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			logrus.SetOutput(cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", getenv("PCLIMA_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")

	root.AddCommand(newGetCmd(), newFormatsCmd(), newTablesCmd())
	return root
}

type getOptions struct {
	request string
	set     []string
	out     string
	token   string
	rcPath  string
}

func newGetCmd() *cobra.Command {
	opts := getOptions{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Download a dataset and optionally save it",
		Example: `  pclima get --request request.json --out data.csv
  pclima get --request request.json --set ano=2000-2002 --out data.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.request, "request", "", "request JSON generated by the portal (- reads stdin)")
	cmd.Flags().StringArrayVar(&opts.set, "set", nil, "selection override as key=value (repeatable)")
	cmd.Flags().StringVar(&opts.out, "out", "", "destination file; .db, .sqlite and .sqlite3 store tables in SQLite")
	cmd.Flags().StringVar(&opts.token, "token", "", "api token (default: API_TOKEN or the rc file)")
	cmd.Flags().StringVar(&opts.rcPath, "rc", "", "rc file holding a token line (default: PCLIMAAPI_RC or ~/.pclimaAPIrc)")
	return cmd
}

func runGet(ctx context.Context, w io.Writer, opts getOptions) error {
	sel, err := loadSelection(opts.request, opts.set)
	if err != nil {
		return err
	}

	cfg, err := pclima.ConfigFromEnv()
	if err != nil {
		return err
	}
	cfg.Token = opts.token
	if opts.rcPath != "" {
		cfg.RCPath = opts.rcPath
	}
	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}

	result, err := provider.GetData(ctx, sel)
	if err != nil {
		return err
	}
	printSummary(w, result)

	if strings.TrimSpace(opts.out) == "" {
		return nil
	}
	return provider.Save(ctx, result, opts.out)
}

func buildProvider(cfg pclima.Config) (providers.Provider, error) {
	client, err := pclima.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func loadSelection(path string, overrides []string) (model.Selection, error) {
	sel := model.Selection{}
	if strings.TrimSpace(path) != "" {
		var (
			data []byte
			err  error
		)
		if path == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, err
		}
		sel, err = model.ParseSelection(data)
		if err != nil {
			return nil, err
		}
	}

	for _, pair := range overrides {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", pair)
		}
		sel[key] = strings.TrimSpace(value)
	}

	if !sel.Has(model.KeyFormat) {
		return nil, errors.New("selection has no formato (use --request or --set formato=CSV)")
	}
	return sel, nil
}

func printSummary(w io.Writer, result model.Result) {
	switch {
	case result.Table != nil:
		fmt.Fprintf(w, "%s: %d rows x %d columns\n", result.Format, result.Rows(), result.Columns())
	case result.Grid != nil:
		fmt.Fprintf(w, "%s: %d dimensions, %d variables\n", result.Format, len(result.Grid.Dimensions), len(result.Grid.Variables))
		if title, ok := result.Grid.Attribute("title"); ok {
			fmt.Fprintf(w, "  title: %v\n", title)
		}
		for _, dim := range result.Grid.Dimensions {
			fmt.Fprintf(w, "  %s = %d\n", dim.Name, dim.Len)
		}
	default:
		fmt.Fprintf(w, "%s: empty result\n", result.Format)
	}
}

func newFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, format := range model.Formats() {
				kind := "grid"
				if format.IsTable() {
					kind = "table"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", format, kind)
			}
			return nil
		},
	}
}

func newTablesCmd() *cobra.Command {
	var dbPath string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "List tables saved into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			names, err := st.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "pclima.db", "sqlite database path")
	return cmd
}

func openStore(path string) (store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return sqlite.New(path)
}

func getenv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
