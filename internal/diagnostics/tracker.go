package diagnostics

import (
	"sync"
	"time"
)

// Tracker stores the region tag attached to diagnostics reports.
type Tracker struct {
	mutex          sync.RWMutex
	region         string
	isPreAuth      bool
	reports        int64
	preAuthReports int64
	byRegion       map[string]int64
	lastReported   time.Time
	startTime      time.Time
}

type Snapshot struct {
	Region         string           `json:"region"`
	IsPreAuth      bool             `json:"is_pre_auth"`
	Reports        int64            `json:"reports"`
	PreAuthReports int64            `json:"pre_auth_reports"`
	ByRegion       map[string]int64 `json:"by_region"`
	LastReported   time.Time        `json:"last_reported"`
	Uptime         time.Duration    `json:"uptime"`
}

func NewTracker() *Tracker {
	return &Tracker{
		byRegion:  make(map[string]int64),
		startTime: time.Now(),
	}
}

func (t *Tracker) Record(region string, isPreAuth bool, at time.Time) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.region = region
	t.isPreAuth = isPreAuth
	t.reports++
	if isPreAuth {
		t.preAuthReports++
	}
	t.byRegion[region]++
	t.lastReported = at
}

func (t *Tracker) Snapshot() Snapshot {
	t.mutex.RLock()
	defer t.mutex.RUnlock()

	byRegion := make(map[string]int64, len(t.byRegion))
	for region, count := range t.byRegion {
		byRegion[region] = count
	}

	return Snapshot{
		Region:         t.region,
		IsPreAuth:      t.isPreAuth,
		Reports:        t.reports,
		PreAuthReports: t.preAuthReports,
		ByRegion:       byRegion,
		LastReported:   t.lastReported,
		Uptime:         time.Since(t.startTime),
	}
}
