// Package ranking orders a job's completed applications into a leaderboard.
package ranking

import (
	"math"
	"sort"
	"time"

	"recruit_backend/internal/model"
)

// Entry 排名计算的输入
type Entry struct {
	ApplicationID uint
	CandidateName string
	WeightedScore float64
	CompletedAt   time.Time
	Status        model.ApplicationStatus
}

// Standing 排名计算的输出，也是排行榜的一行
type Standing struct {
	ApplicationID uint                    `json:"applicationId"`
	CandidateName string                  `json:"candidateName"`
	Rank          int                     `json:"rank"`
	WeightedScore float64                 `json:"weightedScore"`
	Percentile    int                     `json:"percentile"`
	Status        model.ApplicationStatus `json:"status"`
	CompletedAt   time.Time               `json:"completedAt"`
}

// Rank 对整个池子重新排名：加权分降序，同分时先完成者优先，最后按 ID 保证全序。
// percentile = 分数严格低于自己的人数 / 池子大小 × 100，四舍五入
func Rank(entries []Entry) []Standing {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.WeightedScore != b.WeightedScore {
			return a.WeightedScore > b.WeightedScore
		}
		if !a.CompletedAt.Equal(b.CompletedAt) {
			return a.CompletedAt.Before(b.CompletedAt)
		}
		return a.ApplicationID < b.ApplicationID
	})

	n := len(sorted)
	out := make([]Standing, n)
	// 从尾部向前扫描，统计严格更低分的人数
	lower := 0
	for i := n - 1; i >= 0; i-- {
		if i < n-1 && sorted[i].WeightedScore != sorted[i+1].WeightedScore {
			lower = n - 1 - i
		}
		out[i] = Standing{
			ApplicationID: sorted[i].ApplicationID,
			CandidateName: sorted[i].CandidateName,
			Rank:          i + 1,
			WeightedScore: sorted[i].WeightedScore,
			Percentile:    percentile(lower, n),
			Status:        sorted[i].Status,
			CompletedAt:   sorted[i].CompletedAt,
		}
	}
	return out
}

func percentile(lower, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(lower) / float64(total)))
}

// EntriesFromApplications 只保留已完成作答的申请
func EntriesFromApplications(apps []model.Application) []Entry {
	entries := make([]Entry, 0, len(apps))
	for _, a := range apps {
		if !a.Status.Finished() || a.CompletedAt == nil {
			continue
		}
		entries = append(entries, Entry{
			ApplicationID: a.ID,
			CandidateName: a.CandidateName,
			WeightedScore: a.WeightedScore,
			CompletedAt:   *a.CompletedAt,
			Status:        a.Status,
		})
	}
	return entries
}
