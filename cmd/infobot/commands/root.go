package commands

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"infobot/internal/answer"
	"infobot/internal/config"
	"infobot/internal/embedding"
	openaiembed "infobot/internal/embedding/openai"
	"infobot/internal/embedding/tfidf"
	"infobot/internal/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "infobot",
	Short: "Retrieval-augmented assistant for Kumaraguru College of Technology",
	Long: `infobot builds a searchable vector index over the college's
informational content and answers questions against it.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(askCmd)
}

func setup() (*config.AppConfig, *zap.Logger, error) {
	_ = godotenv.Load()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New()
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func buildEncoder(cfg *config.AppConfig) (embedding.Encoder, error) {
	switch cfg.Encoder.Type {
	case "tfidf", "":
		return tfidf.NewEncoder(), nil
	case "openai":
		o := cfg.Encoder.OpenAI
		return openaiembed.NewEncoder(openaiembed.Config{
			BaseURL:   o.BaseURL,
			APIKeyEnv: o.APIKeyEnv,
			Model:     o.Model,
			Timeout:   time.Duration(o.TimeoutSecs) * time.Second,
			BatchSize: o.BatchSize,
		})
	default:
		return nil, fmt.Errorf("unknown encoder: %s", cfg.Encoder.Type)
	}
}

func buildGenerator(cfg *config.AppConfig) (answer.Generator, error) {
	switch cfg.Generator.Type {
	case "extractive", "":
		return answer.NewExtractiveGenerator(5, cfg.Generator.RelevanceThreshold), nil
	case "openai":
		g := cfg.Generator.OpenAI
		return answer.NewOpenAIGenerator(answer.OpenAIConfig{
			BaseURL:     g.BaseURL,
			APIKeyEnv:   g.APIKeyEnv,
			Model:       g.Model,
			Temperature: g.Temperature,
			MaxTokens:   g.MaxTokens,
			Timeout:     time.Duration(g.TimeoutSecs) * time.Second,
			Threshold:   cfg.Generator.RelevanceThreshold,
		})
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Generator.Type)
	}
}
