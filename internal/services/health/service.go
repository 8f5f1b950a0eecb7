package health

import (
	"context"
	"time"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Service encapsulates health-related checks.
type Service struct {
	DB    Pinger
	Store string
	Queue string
}

// Status is the health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Store    string `json:"store"`
	Queue    string `json:"queue"`
}

// NewService constructs a new health service. db may be nil when repositories are in memory.
func NewService(db Pinger, store, queue string) *Service {
	return &Service{DB: db, Store: store, Queue: queue}
}

// Status reports component modes and whether the database answers a ping.
func (s *Service) Status(ctx context.Context) Status {
	st := Status{OK: true, Database: "memory", Store: s.Store, Queue: s.Queue}
	if s.DB == nil {
		return st
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.DB.PingContext(ctx); err != nil {
		st.OK = false
		st.Database = "unreachable"
		return st
	}
	st.Database = "postgres"
	return st
}
