package service

import (
	"context"

	"github.com/iliyamo/table-reservation/internal/apperr"
	"github.com/iliyamo/table-reservation/internal/model"
)

// ReportService computes the admin dashboard figures.
type ReportService struct {
	bookings BookingStore
}

func NewReportService(bookings BookingStore) *ReportService {
	return &ReportService{bookings: bookings}
}

// Stats returns booking totals. Revenue excludes cancelled bookings.
func (s *ReportService) Stats(ctx context.Context, caller model.Identity) (model.BookingStats, error) {
	if !caller.IsAdmin() {
		return model.BookingStats{}, apperr.Forbidden("Admin access required")
	}
	st, err := s.bookings.Stats(ctx)
	if err != nil {
		return model.BookingStats{}, apperr.Internal("booking stats failed", err)
	}
	return st, nil
}
