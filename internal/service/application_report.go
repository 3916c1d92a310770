package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recruit_backend/internal/model"
	"recruit_backend/internal/util"
)

// ApplicationReport 招聘方查看的完整评估报告
type ApplicationReport struct {
	Application         *model.Application      `json:"application"`
	JobTitle            string                  `json:"jobTitle"`
	AssessmentTitle     string                  `json:"assessmentTitle"`
	Questions           []model.Question        `json:"questions"`
	PendingReevaluation []string                `json:"pendingReevaluation"`
	ProctoringEvents    []model.ProctoringEvent `json:"proctoringEvents"`
	GeneratedAt         time.Time               `json:"generatedAt"`
}

func (s *ApplicationService) Report(actor *util.Claims, appID uint) (*ApplicationReport, error) {
	app, err := s.loadApp(appID)
	if err != nil {
		return nil, err
	}
	job, err := s.Jobs.Get(actor, app.JobID)
	if err != nil {
		return nil, err
	}
	return s.buildReport(app, job)
}

func (s *ApplicationService) buildReport(app *model.Application, job *model.Job) (*ApplicationReport, error) {
	a, err := s.loadAssessment(app.AssessmentID)
	if err != nil {
		return nil, err
	}
	events, err := s.Events.ListByApplication(app.ID)
	if err != nil {
		return nil, err
	}

	pending := []string{}
	for _, ans := range app.Answers {
		if !ans.Graded() {
			pending = append(pending, ans.QuestionID)
		}
	}

	return &ApplicationReport{
		Application:         app,
		JobTitle:            job.Title,
		AssessmentTitle:     a.Title,
		Questions:           a.Questions,
		PendingReevaluation: pending,
		ProctoringEvents:    events,
		GeneratedAt:         s.now(),
	}, nil
}

func reportKey(app *model.Application) string {
	return fmt.Sprintf("reports/job-%d/application-%d.json", app.JobID, app.ID)
}

// archiveReport 把报告快照写入对象存储，每次评估覆盖同一个 key
func (s *ApplicationService) archiveReport(ctx context.Context, app *model.Application) error {
	job, err := s.Jobs.Get(nil, app.JobID)
	if err != nil {
		return err
	}
	report, err := s.buildReport(app, job)
	if err != nil {
		return err
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	_, err = s.Artifacts.SaveArtifact(ctx, reportKey(app), body, util.MimeJSON)
	return err
}
