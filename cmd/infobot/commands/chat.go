package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"infobot/internal/service"
	"infobot/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start the interactive chat interface",
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

		_, err = tea.NewProgram(tui.New(kb, cfg.HistoryDir)).Run()
		return err
	},
}
