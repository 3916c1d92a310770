package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"recruit_backend/internal/model"
	"recruit_backend/internal/ranking"
	"recruit_backend/internal/repository"
	"recruit_backend/internal/util"
	"recruit_backend/pkg/logger"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ExportService 导出岗位排行榜为 Excel
type ExportService struct {
	Jobs      *JobService
	Apps      *repository.ApplicationRepository
	Ranking   *RankingService
	Artifacts ArtifactStore // 可为 nil
	Now       func() time.Time
}

func NewExportService(jobs *JobService, apps *repository.ApplicationRepository, ranking *RankingService, artifacts ArtifactStore) *ExportService {
	return &ExportService{Jobs: jobs, Apps: apps, Ranking: ranking, Artifacts: artifacts, Now: time.Now}
}

type LeaderboardExport struct {
	Filename string
	Content  []byte
	URL      string // 归档后的访问地址，未归档时为空
}

// ExportLeaderboard 生成排行榜工作簿：Summary 与 Leaderboard 两个 sheet
func (s *ExportService) ExportLeaderboard(ctx context.Context, actor *util.Claims, jobID uint) (*LeaderboardExport, error) {
	job, err := s.Jobs.Get(actor, jobID)
	if err != nil {
		return nil, err
	}
	standings, err := s.Ranking.Leaderboard(ctx, jobID)
	if err != nil {
		return nil, err
	}
	pool, err := s.Apps.ListRankingPool(jobID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.Application, len(pool))
	for _, app := range pool {
		byID[app.ID] = app
	}

	now := s.Now()
	content, err := buildLeaderboardWorkbook(job, standings, byID, now)
	if err != nil {
		return nil, err
	}

	out := &LeaderboardExport{
		Filename: fmt.Sprintf("leaderboard-job-%d-%s.xlsx", job.ID, now.Format("20060102150405")),
		Content:  content,
	}
	if s.Artifacts != nil {
		url, err := s.Artifacts.SaveArtifact(ctx, "exports/"+out.Filename, content, util.MimeXLSX)
		if err != nil {
			logger.Log.Warn("failed to archive leaderboard export", zap.Uint("jobId", jobID), zap.Error(err))
		} else {
			out.URL = url
		}
	}
	return out, nil
}

func buildLeaderboardWorkbook(job *model.Job, standings []ranking.Standing, apps map[uint]model.Application, now time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	summarySheet := "Summary"
	boardSheet := "Leaderboard"
	f.SetSheetName("Sheet1", summarySheet)
	if _, err := f.NewSheet(boardSheet); err != nil {
		return nil, err
	}

	if err := writeSummarySheet(f, summarySheet, job, standings, now); err != nil {
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeLeaderboardSheet(f, boardSheet, standings, apps); err != nil {
		return nil, fmt.Errorf("failed to create leaderboard sheet: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, sheet string, job *model.Job, standings []ranking.Standing, now time.Time) error {
	f.SetColWidth(sheet, "A", "A", 25)
	f.SetColWidth(sheet, "B", "B", 40)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	row := 1
	f.SetCellValue(sheet, fmt.Sprintf("A%d", row), "Candidate Leaderboard")
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), headerStyle)
	f.MergeCell(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row))
	row += 2

	counts := map[model.ApplicationStatus]int{}
	var sum float64
	for _, st := range standings {
		counts[st.Status]++
		sum += st.WeightedScore
	}
	avg := 0.0
	if len(standings) > 0 {
		avg = sum / float64(len(standings))
	}

	rows := [][2]interface{}{
		{"Job Title:", job.Title},
		{"Job Status:", string(job.Status)},
		{"Generated:", now.Format(util.TimeFormat)},
		{"Candidates Ranked:", len(standings)},
		{"Shortlisted:", counts[model.StatusShortlisted]},
		{"Rejected:", counts[model.StatusRejected]},
		{"Awaiting Decision:", counts[model.StatusCompleted]},
		{"Average Weighted Score:", fmt.Sprintf("%.2f", avg)},
		{"Minimum Score:", job.Criteria.MinimumScore},
	}
	for _, r := range rows {
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), r[0])
		f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("A%d", row), labelStyle)
		f.SetCellValue(sheet, fmt.Sprintf("B%d", row), r[1])
		row++
	}
	return nil
}

func writeLeaderboardSheet(f *excelize.File, sheet string, standings []ranking.Standing, apps map[uint]model.Application) error {
	headers := []string{
		"Rank", "Candidate", "Email", "Weighted Score", "Percentile", "Status",
		"Technical", "Problem Solving", "Communication", "Coding",
		"Credibility", "Recommendation", "Needs Review", "Skill Gaps", "Completed At",
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	if err != nil {
		return err
	}
	shortlistStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	rejectStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"FFC7CE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "C", 28)
	f.SetColWidth(sheet, "D", lastCol, 16)
	f.SetColWidth(sheet, "N", "N", 40)
	f.SetPanes(sheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})

	for i, st := range standings {
		row := i + 2
		app := apps[st.ApplicationID]

		values := []interface{}{
			st.Rank,
			st.CandidateName,
			app.CandidateEmail,
			st.WeightedScore,
			st.Percentile,
			string(st.Status),
			app.DetailedScores.Technical,
			app.DetailedScores.ProblemSolving,
			app.DetailedScores.Communication,
			app.DetailedScores.Coding,
			app.CredibilityScore,
			string(app.AIRecommendation),
			app.NeedsReview,
			formatGaps(app.SkillGaps),
			st.CompletedAt.Format(util.TimeFormat),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}

		switch st.Status {
		case model.StatusShortlisted:
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), shortlistStyle)
		case model.StatusRejected:
			f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%s%d", lastCol, row), rejectStyle)
		}
	}
	return nil
}

func formatGaps(gaps []model.SkillGap) string {
	parts := make([]string, 0, len(gaps))
	for _, g := range gaps {
		if g.Severity == model.SeverityPositive {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", g.Skill, g.Severity))
	}
	return strings.Join(parts, "; ")
}
