// AngelaMos | 2026
// service.go

package audit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Recorder is the write side of the audit log that other packages depend on.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	RecordBestEffort(ctx context.Context, e Entry)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Record(ctx context.Context, e Entry) error {
	log := &Log{
		ID:        uuid.New().String(),
		Type:      e.Type,
		UserEmail: strings.ToLower(e.UserEmail),
		Message:   e.Message,
		Metadata:  e.Metadata,
		IPAddress: e.IPAddress,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, log); err != nil {
		return fmt.Errorf("record %s: %w", e.Type, err)
	}

	return nil
}

// RecordBestEffort logs a failed write instead of returning it.
func (s *Service) RecordBestEffort(ctx context.Context, e Entry) {
	if err := s.Record(ctx, e); err != nil {
		s.logger.Warn("audit write failed", "type", e.Type, "error", err)
	}
}

func (s *Service) List(
	ctx context.Context,
	params ListLogsParams,
) ([]Log, int64, error) {
	return s.repo.List(ctx, params)
}

var _ Recorder = (*Service)(nil)
