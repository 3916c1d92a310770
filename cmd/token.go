package cmd

import (
	"fmt"
	"time"

	"recruit_backend/internal/util"

	"github.com/spf13/cobra"
)

var (
	tokenUserID uint
	tokenEmail  string
	tokenRole   string
	tokenTTL    time.Duration
)

// tokenCmd 签发本地调试用的招聘方令牌，生产环境由认证服务签发
var tokenCmd = &cobra.Command{
	Use:   "dev-token",
	Short: "Issue a recruiter JWT for local development",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Server.Mode == "release" {
			return fmt.Errorf("dev-token is disabled in release mode")
		}

		role := util.Role(tokenRole)
		if role != util.RoleRecruiter && role != util.RoleAdmin {
			return fmt.Errorf("unknown role %q", tokenRole)
		}
		token, err := util.GenerateJWT(tokenUserID, role, tokenEmail, cfg.JWT.Secret, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().UintVar(&tokenUserID, "user", 1, "recruiter user id")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "recruiter@example.com", "recruiter email")
	tokenCmd.Flags().StringVar(&tokenRole, "role", string(util.RoleRecruiter), "recruiter | admin")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	rootCmd.AddCommand(tokenCmd)
}
