package command

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"recommendr/internal/config"
	"recommendr/internal/logger"
	"recommendr/internal/recommend"
	"recommendr/internal/store"
)

var (
	cfg      *config.Config
	log      *slog.Logger
	logLevel string // overrides LOG_LEVEL
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "recommendr",
	Short: "recommendr - collaborative filtering movie recommender",
	Long: `recommendr keeps movie ratings in Redis and recommends movies from the
ratings of similar reviewers. Use it to:
- Import a MovieLens-style dataset and split it into training and test sets
- Rate movies and get personal recommendations
- Precompute and inspect similar-movie lists
- Serve the HTTP API

Use "recommendr [command] --help" to see the flags of each command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig()
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.LogLevel = logLevel
		}
		cfg = c
		log = logger.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
		slog.SetDefault(log)
		return nil
	},
}

// Execute adds all child commands to the root command and runs it with a
// context cancelled on SIGINT or SIGTERM. This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); defaults to LOG_LEVEL")
}

// openEngine connects to the configured Redis. Callers close the engine.
func openEngine(ctx context.Context) (*recommend.Engine, error) {
	st, err := store.NewRedisStore(ctx, store.Options{
		Addr:        cfg.RedisAddr(),
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: cfg.RedisDialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return recommend.NewEngine(st, recommend.EngineConfig{RecommendLimit: cfg.RecommendLimit}, log), nil
}

// reviewerOrDefault falls back to DEFAULT_REVIEWER_ID when id is unset.
func reviewerOrDefault(id int64) int64 {
	if id > 0 {
		return id
	}
	return cfg.DefaultReviewerID
}
