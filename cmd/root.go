package cmd

import (
	"fmt"
	"os"

	"recruit_backend/internal/app"
	"recruit_backend/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var configDir string

var rootCmd = &cobra.Command{
	Use:   "recruit",
	Short: "Assessment evaluation and candidate ranking service",
	Long: `recruit 提供测评作答、自动评分、技能差距分析与候选人排名。
不带子命令时等同于 serve。`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// 本地开发用 .env，生产环境直接注入环境变量
		_ = godotenv.Load()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(false)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "directory containing config.yaml")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// withApp 为一次性子命令构建完整依赖，结束后释放连接
func withApp(fn func(*app.App) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	application := app.NewApp(cfg)
	defer application.Close()
	return fn(application)
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
