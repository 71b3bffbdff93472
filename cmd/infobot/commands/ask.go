package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"infobot/internal/service"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
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
		generator, err := buildGenerator(cfg)
		if err != nil {
			return err
		}
		kb := service.New(cfg, encoder, generator, log)
		if err := kb.Initialize(cmd.Context()); err != nil {
			return err
		}

		question := strings.Join(args, " ")
		fmt.Println(kb.QueryKnowledgeBase(cmd.Context(), question))
		return nil
	},
}
