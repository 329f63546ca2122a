package services

import (
	"time"

	"fintrack/internal/analytics"
	"fintrack/internal/cache"
	"fintrack/internal/core"
)

// Snapshotter yields the collection and the revision it was read at.
type Snapshotter interface {
	Snapshot() ([]core.Transaction, uint64)
}

// DashboardService computes dashboards and memoizes them per store
// revision, reference month and chart window. A new revision never hits an
// older entry, so mutations need no explicit invalidation.
type DashboardService struct {
	source  Snapshotter
	catalog core.Catalog
	cache   *cache.LRUCache[analytics.Dashboard]
	window  int
}

func NewDashboardService(source Snapshotter, catalog core.Catalog, c *cache.LRUCache[analytics.Dashboard], window int) *DashboardService {
	if window <= 0 {
		window = analytics.DefaultWindow
	}
	return &DashboardService{source: source, catalog: catalog, cache: c, window: window}
}

func (s *DashboardService) DefaultWindow() int { return s.window }

// Dashboard returns every aggregate for the month containing ref. A
// non-positive window uses the configured default.
func (s *DashboardService) Dashboard(ref time.Time, window int) analytics.Dashboard {
	if window <= 0 {
		window = s.window
	}
	txs, rev := s.source.Snapshot()
	build := func() analytics.Dashboard {
		return analytics.BuildDashboard(txs, s.catalog, ref, window)
	}
	if s.cache == nil {
		return build()
	}
	month := analytics.MonthOf(ref).Start
	key := cache.Key("dashboard", rev, month.Format("2006-01"), month.Location().String(), window)
	return s.cache.GetOrCompute(key, build)
}
