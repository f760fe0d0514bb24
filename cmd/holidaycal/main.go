package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jdmeng/holidaycal/internal/config"
	"github.com/jdmeng/holidaycal/internal/daemon"
	"github.com/jdmeng/holidaycal/internal/holiday"
	"github.com/jdmeng/holidaycal/internal/store"
	"github.com/jdmeng/holidaycal/pkg/dateutil"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "holidaycal",
		Short: "Chinese holiday calendar engine",
		Long:  "Classify calendar days, locate holiday blocks with their shifted workdays, and find the nearest festival or anniversary",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(configPath)
			if err == nil && cfg.Log.File != "" {
				logger, err = initFileLogger(cfg.Log.File, cfg.Log.Level)
				if err != nil {
					initLogger()
				}
			} else {
				initLogger()
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")

	rootCmd.AddCommand(todayCmd())
	rootCmd.AddCommand(detailCmd())
	rootCmd.AddCommand(nearestCmd())
	rootCmd.AddCommand(festivalCmd())
	rootCmd.AddCommand(anniversariesCmd())
	rootCmd.AddCommand(refreshCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// initializeEngine wires the store and engine from config. The
// returned cleanup closes the database.
func initializeEngine(cfg *config.Config) (*holiday.Engine, func(), error) {
	st, err := store.Open(cfg.DatabasePath(), cfg.SnapshotPath(), logger)
	if err != nil {
		// The engine stays queryable without a store, serving
		// weekday-inferred answers.
		logger.Error("Failed to open calendar store", zap.Error(err))
		st = nil
	}

	delay, err := time.ParseDuration(cfg.API.RequestDelay)
	if err != nil {
		delay = 0
	}

	var storage holiday.Storage
	cleanup := func() {}
	if st != nil {
		storage = st
		cleanup = func() { st.Close() }
	}

	engine := holiday.NewEngine(storage, holiday.Options{
		APIURL:         cfg.API.URL,
		StaleAfterDays: cfg.API.StaleAfterDays,
		FetchDelay:     delay,
		Anniversaries:  cfg.Anniversaries,
	}, logger)

	return engine, cleanup, nil
}

func loadAndInit() (*config.Config, *holiday.Engine, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	engine, cleanup, err := initializeEngine(cfg)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, engine, cleanup, nil
}

func todayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show the day type of today and tomorrow",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, cleanup, err := loadAndInit()
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Printf("今天: %s\n", engine.TodayStatus())
			fmt.Printf("明天: %s\n", engine.TomorrowStatus())
			return nil
		},
	}
}

func detailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detail [YYYY-MM-DD]",
		Short: "Show the full day record for a date (default today)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date := dateutil.Today()
			if len(args) == 1 {
				var err error
				date, err = dateutil.ParseDate(args[0])
				if err != nil {
					return fmt.Errorf("invalid date %q: %w", args[0], err)
				}
			}

			_, engine, cleanup, err := loadAndInit()
			if err != nil {
				return err
			}
			defer cleanup()

			detail := engine.DayDetail(date)
			out, err := json.MarshalIndent(detail, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func nearestCmd() *cobra.Command {
	var minDays, maxDays int

	cmd := &cobra.Command{
		Use:   "nearest",
		Short: "Show the nearest statutory holiday block with shifted workdays",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, cleanup, err := loadAndInit()
			if err != nil {
				return err
			}
			defer cleanup()

			fmt.Println(engine.NearestHolidayInfo(minDays, maxDays))
			return nil
		},
	}

	cmd.Flags().IntVar(&minDays, "min", 0, "Minimum day offset")
	cmd.Flags().IntVar(&maxDays, "max", 60, "Maximum day offset")
	return cmd
}

func festivalCmd() *cobra.Command {
	var minDays, maxDays int

	cmd := &cobra.Command{
		Use:   "festival",
		Short: "Show the nearest festival across all sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, cleanup, err := loadAndInit()
			if err != nil {
				return err
			}
			defer cleanup()

			cand := engine.NearestFestival(minDays, maxDays, nil)
			if cand == nil {
				fmt.Println("无最近节日")
				return nil
			}
			fmt.Printf("%s %s (%d天后)\n",
				dateutil.FormatDate(cand.Date), cand.Name, cand.DaysDiff)
			return nil
		},
	}

	cmd.Flags().IntVar(&minDays, "min", 0, "Minimum day offset")
	cmd.Flags().IntVar(&maxDays, "max", 60, "Maximum day offset")
	return cmd
}

func anniversariesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "anniversaries",
		Short: "List configured anniversaries by next occurrence",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, cleanup, err := loadAndInit()
			if err != nil {
				return err
			}
			defer cleanup()

			records := engine.FutureAnniversaries(dateutil.Today())
			if len(records) == 0 {
				fmt.Println("没有配置纪念日")
				return nil
			}
			for _, rec := range records {
				kind := ""
				if rec.IsLunar {
					kind = "(农历)"
				}
				fmt.Printf("%s %s%s %d天后\n",
					dateutil.FormatDate(rec.Date), rec.Name, kind, rec.DaysDiff)
			}
			return nil
		},
	}
}

func refreshCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch the latest calendar data from the remote API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, cleanup, err := loadAndInit()
			if err != nil {
				return err
			}
			defer cleanup()

			staleDays := cfg.API.StaleAfterDays
			if force {
				staleDays = 0
			}
			engine.Refresh(staleDays)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Fetch regardless of data freshness")
	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the periodic refresh daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, cleanup, err := loadAndInit()
			if err != nil {
				return err
			}
			defer cleanup()

			d := daemon.New(engine, cfg.Daemon.Schedule, cfg.API.StaleAfterDays, logger)
			return d.Run()
		},
	}
}

func initLogger() {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
}

func initFileLogger(logFile, logLevel string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Lumberjack handles rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    10, // MB
		MaxBackups: 3,
		MaxAge:     30, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	level := zapcore.InfoLevel
	if logLevel != "" {
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			level = zapcore.InfoLevel
		}
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		level,
	)

	return zap.New(core), nil
}
