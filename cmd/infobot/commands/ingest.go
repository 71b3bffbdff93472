package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"infobot/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Build the vector index and chunk store from the data directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		encoder, err := buildEncoder(cfg)
		if err != nil {
			return err
		}
		stats, err := pipeline.Run(cmd.Context(), cfg, encoder, log)
		if err != nil {
			return err
		}
		log.Info("vectorstore ready",
			zap.String("build_id", stats.BuildID),
			zap.String("dir", cfg.VectorstoreDir))
		return nil
	},
}
