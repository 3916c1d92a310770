package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"recruit_backend/internal/ranking"
	"recruit_backend/internal/repository"
	"recruit_backend/pkg/lock"
	"recruit_backend/pkg/logger"
	"recruit_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeaderboardCache 排行榜只读投影的缓存，真实数据始终以申请记录为准
type LeaderboardCache interface {
	Get(ctx context.Context, jobID uint) ([]ranking.Standing, bool)
	Set(ctx context.Context, jobID uint, rows []ranking.Standing)
	Invalidate(ctx context.Context, jobID uint)
}

type RedisLeaderboardCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLeaderboardCache(rdb *redis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{rdb: rdb, ttl: ttl}
}

func leaderboardKey(jobID uint) string {
	return fmt.Sprintf("leaderboard:job:%d", jobID)
}

func (c *RedisLeaderboardCache) Get(ctx context.Context, jobID uint) ([]ranking.Standing, bool) {
	data, err := c.rdb.Get(ctx, leaderboardKey(jobID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.Warn("leaderboard cache read failed", zap.Uint("jobId", jobID), zap.Error(err))
		}
		return nil, false
	}
	var rows []ranking.Standing
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (c *RedisLeaderboardCache) Set(ctx context.Context, jobID uint, rows []ranking.Standing) {
	data, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, leaderboardKey(jobID), data, c.ttl).Err(); err != nil {
		logger.Log.Warn("leaderboard cache write failed", zap.Uint("jobId", jobID), zap.Error(err))
	}
}

func (c *RedisLeaderboardCache) Invalidate(ctx context.Context, jobID uint) {
	c.rdb.Del(ctx, leaderboardKey(jobID))
}

type RankingService struct {
	DB     *gorm.DB
	Apps   *repository.ApplicationRepository
	Locker lock.Locker
	Cache  LeaderboardCache // 可为 nil
}

func NewRankingService(db *gorm.DB, apps *repository.ApplicationRepository, locker lock.Locker, cache LeaderboardCache) *RankingService {
	return &RankingService{DB: db, Apps: apps, Locker: locker, Cache: cache}
}

// Recompute 整池重建某岗位的 rank/percentile。同一岗位串行执行，
// 读池与写回在同一事务内，并发完成的申请不会基于过期的池写入冲突的名次
func (s *RankingService) Recompute(ctx context.Context, jobID uint) ([]ranking.Standing, error) {
	release, err := s.Locker.Acquire(ctx, fmt.Sprintf("ranking:job:%d", jobID))
	if err != nil {
		return nil, fmt.Errorf("acquire ranking lock: %w", err)
	}
	defer release()

	start := time.Now()
	var standings []ranking.Standing
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.Apps.WithTx(tx)
		pool, err := repo.ListRankingPool(jobID)
		if err != nil {
			return err
		}
		standings = ranking.Rank(ranking.EntriesFromApplications(pool))
		return repo.UpdateRanks(standings)
	})
	if err != nil {
		if s.Cache != nil {
			s.Cache.Invalidate(ctx, jobID)
		}
		return nil, err
	}
	monitoring.RankRecomputeDuration.Observe(time.Since(start).Seconds())

	if s.Cache != nil {
		s.Cache.Set(ctx, jobID, standings)
	}
	logger.Log.Debug("leaderboard rebuilt", zap.Uint("jobId", jobID), zap.Int("poolSize", len(standings)))
	return standings, nil
}

// Leaderboard 优先读缓存，未命中时从申请记录现算（不写回名次）
func (s *RankingService) Leaderboard(ctx context.Context, jobID uint) ([]ranking.Standing, error) {
	if s.Cache != nil {
		if rows, ok := s.Cache.Get(ctx, jobID); ok {
			return rows, nil
		}
	}
	pool, err := s.Apps.ListRankingPool(jobID)
	if err != nil {
		return nil, err
	}
	rows := ranking.Rank(ranking.EntriesFromApplications(pool))
	if s.Cache != nil {
		s.Cache.Set(ctx, jobID, rows)
	}
	return rows, nil
}
