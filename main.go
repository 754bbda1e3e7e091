package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ssdetect/internal/config"
	processing "ssdetect/processing/detector"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  = zap.NewNop().Sugar()

	rootCmd = &cobra.Command{
		Use:   "ssdetect",
		Short: "SSD MobileNet object detection",
		Long: `ssdetect runs an SSD MobileNet detector trained on COCO over still images
and draws boxes, labels and confidence scores on top of them.

Without a subcommand it opens the desktop app.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
		RunE:              runUI,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigPath, "config file")
	rootCmd.PersistentFlags().String("backend", string(config.BackendONNX),
		"inference backend ("+strings.Join(config.BackendsList[:], ", ")+")")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Float64("threshold", config.DefaultThreshold, "confidence threshold in [0, 1]")

	_ = viper.BindPFlag("backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("threshold", rootCmd.PersistentFlags().Lookup("threshold"))

	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return config.BackendsList[:], cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(uiCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(samplesCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logger.Sync()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	viper.SetEnvPrefix("SSDETECT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	cfg = config.LoadConfigFile(cfgFile)
	cfg.Merge(viper.GetViper())

	l, err := newLogger(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "failed to setup logging")
	}
	logger = l
	logger.Debugw("config loaded", "path", cfgFile, "backend", cfg.GetBackend(), "threshold", cfg.GetThreshold())
	return nil
}

func newLogger(level string) (*zap.SugaredLogger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.DisableStacktrace = true
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// openDetector builds the configured pipeline and loads its model.
func openDetector(ctx context.Context) (*processing.Detector, error) {
	det, err := processing.NewDetectorFromConfig(cfg, logger)
	if err != nil {
		return nil, err
	}
	if !det.Load(ctx) {
		return det, errors.Errorf("failed to load model %s", det.ModelName())
	}
	return det, nil
}

func closeDetector(det *processing.Detector) error {
	if det == nil {
		return processing.ShutdownRuntime()
	}
	return multierr.Combine(det.Close(), processing.ShutdownRuntime())
}
