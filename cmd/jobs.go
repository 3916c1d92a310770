package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"recruit_backend/internal/app"
	"recruit_backend/internal/util"

	"github.com/spf13/cobra"
)

// 运维命令以管理员身份执行，跳过岗位归属校验
var operator = &util.Claims{Role: util.RoleAdmin}

func parseJobID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid job id %q", arg)
	}
	return uint(id), nil
}

var rerankCmd = &cobra.Command{
	Use:   "rerank <job-id>",
	Short: "Recompute the leaderboard of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseJobID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app.App) error {
			rows, err := a.Ranking().Recompute(cmd.Context(), jobID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tAPPLICATION\tCANDIDATE\tSCORE\tPERCENTILE\tSTATUS")
			for _, r := range rows {
				fmt.Fprintf(w, "%d\t%d\t%s\t%.2f\t%d\t%s\n", r.Rank, r.ApplicationID, r.CandidateName, r.WeightedScore, r.Percentile, r.Status)
			}
			return w.Flush()
		})
	},
}

var reevaluateCmd = &cobra.Command{
	Use:   "reevaluate <job-id>",
	Short: "Re-grade answers that are still pending for a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseJobID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app.App) error {
			n, err := a.Applications().ReevaluatePending(cmd.Context(), jobID)
			if err != nil {
				return err
			}
			fmt.Printf("re-evaluated %d application(s)\n", n)
			return nil
		})
	},
}

var exportOut string

var exportCmd = &cobra.Command{
	Use:   "export-leaderboard <job-id>",
	Short: "Write the leaderboard of a job to an xlsx file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := parseJobID(args[0])
		if err != nil {
			return err
		}
		return withApp(func(a *app.App) error {
			out, err := a.Export().ExportLeaderboard(cmd.Context(), operator, jobID)
			if err != nil {
				return err
			}
			path := filepath.Join(exportOut, out.Filename)
			if err := os.WriteFile(path, out.Content, 0644); err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "output directory")
	rootCmd.AddCommand(rerankCmd, reevaluateCmd, exportCmd)
}
