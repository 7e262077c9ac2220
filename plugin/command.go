package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
	"sbl.system/synwork/synwork-processor-excelai/logger"
)

const (
	EnvListen  = "SYNWORK_EXCEL_LISTEN"
	EnvVerbose = "SYNWORK_EXCEL_VERBOSE"

	defaultListen = ":8080"
	serveTimeout  = 5 * time.Minute
)

// NewCommand builds the command line of a processor:
//
//	exec <job.yaml>   run one method call described by a job file
//	serve             expose the methods over HTTP
//	methods           list the methods
func NewCommand(opts PluginOptions) *cobra.Command {
	var (
		verbose bool
		envFile string
	)
	root := &cobra.Command{
		Use:           "synwork-processor-excelai",
		Short:         "Spreadsheet row and worksheet operations for synwork workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}
			if !cmd.Flags().Changed("verbose") {
				verbose = cast.ToBool(os.Getenv(EnvVerbose))
			}
			return logger.Init(verbose)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level (env "+EnvVerbose+")")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "file with environment defaults, .env when present")

	root.AddCommand(execCommand(opts), serveCommand(opts), methodsCommand(opts))
	return root
}

// loadEnv loads an explicitly named env file, or .env if one exists.
// Variables already set in the environment are kept.
func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load()
	}
	return nil
}

func execCommand(opts PluginOptions) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "exec <job.yaml>",
		Short: "Run the method call described by a job file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := LoadJob(args[0])
			if err != nil {
				return err
			}
			req, err := job.Request()
			if err != nil {
				return err
			}
			runner, err := NewRunner(cmd.Context(), opts, job.Processor)
			if err != nil {
				return err
			}
			resp, err := runner.Call(cmd.Context(), req)
			if err != nil {
				return err
			}
			if outDir != "" {
				paths, err := WriteBinaries(outDir, resp.Items)
				if err != nil {
					return err
				}
				logger.Logger.Info("binaries written", zap.Strings("paths", paths))
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&outDir, "out-dir", "", "directory for binary results such as modified workbooks")
	return cmd
}

func serveCommand(opts PluginOptions) *cobra.Command {
	var (
		listen     string
		configFile string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the methods over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("listen") {
				if env := os.Getenv(EnvListen); env != "" {
					listen = env
				}
			}
			config, err := loadProcessorConfig(configFile)
			if err != nil {
				return err
			}
			runner, err := NewRunner(cmd.Context(), opts, config)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return listenAndServe(ctx, listen, NewRouter(runner))
		},
	}
	cmd.Flags().StringVar(&listen, "listen", defaultListen, "listen address (env "+EnvListen+")")
	cmd.Flags().StringVar(&configFile, "config", "", "YAML file with the processor configuration")
	return cmd
}

func methodsCommand(opts PluginOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "methods",
		Short: "List the methods of the processor",
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := NewRunner(cmd.Context(), opts, nil)
			if err != nil {
				return err
			}
			for _, m := range runner.Methods() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", m.Name, m.Description)
			}
			return nil
		},
	}
}

func loadProcessorConfig(path string) (map[string]interface{}, error) {
	config := map[string]interface{}{}
	if path == "" {
		return config, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read processor config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return nil, fmt.Errorf("parse processor config %s: %w", path, err)
	}
	return config, nil
}

// listenAndServe serves until ctx is done, then shuts down gracefully.
func listenAndServe(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Logger.Info("listening", zap.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Logger.Info("server stopped")
	return nil
}
