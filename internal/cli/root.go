package cli

import (
	"net/http"
	"os"
	"time"

	"quiz-session/internal/app"
	"quiz-session/internal/config"
	"quiz-session/internal/infra/httpquiz"
	"quiz-session/internal/infra/memory"
	infraredis "quiz-session/internal/infra/redis"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quiz-session",
		Short:        "Take a remote multiple-choice quiz from the terminal or a browser",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewPlayCmd(&configPath))
	cmd.AddCommand(NewStartCmd(&configPath))
	return cmd
}

// newQuizRepository wires the provider client behind the configured cache.
// The returned func releases any connections it opened.
func newQuizRepository(cfg config.Config) (app.QuizRepository, func()) {
	timeout := config.TTLDuration(cfg.Provider.Timeout, 10*time.Second)
	provider := httpquiz.NewClient(&http.Client{Timeout: timeout})
	ttl := config.TTLDuration(cfg.Quiz.TTL, 0)

	if cfg.Redis.Addr == "" {
		return memory.NewQuizRepository(provider, ttl), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return infraredis.NewQuizRepository(client, provider, ttl), func() { _ = client.Close() }
}
