package config

import "sync/atomic"

// PolicyStore 持有当前生效的评分策略，配置热加载时整体替换
type PolicyStore struct {
	current atomic.Pointer[ScoringPolicy]
}

func NewPolicyStore(p ScoringPolicy) *PolicyStore {
	s := &PolicyStore{}
	s.Set(p)
	return s
}

func (s *PolicyStore) Get() ScoringPolicy {
	return *s.current.Load()
}

func (s *PolicyStore) Set(p ScoringPolicy) {
	s.current.Store(&p)
}
