package cmd

import (
	"recruit_backend/internal/app"

	"github.com/spf13/cobra"
)

var forceMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and background workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(forceMigrate)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&forceMigrate, "migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	rootCmd.AddCommand(serveCmd)
}

func runServe(migrate bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cfg.ForceMigrate = migrate

	app.NewApp(cfg).Run()
	return nil
}
