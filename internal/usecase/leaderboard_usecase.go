package usecase

import (
	"context"
	"sort"

	"civicfix/internal/domain/county"
	"civicfix/internal/domain/entity"
	"civicfix/internal/domain/repository"
)

type LeaderboardUseCase struct {
	reportRepo repository.ReportRepository
}

func NewLeaderboardUseCase(reportRepo repository.ReportRepository) *LeaderboardUseCase {
	return &LeaderboardUseCase{
		reportRepo: reportRepo,
	}
}

// Get recomputes the county ranking from the completed reports on every call.
func (uc *LeaderboardUseCase) Get(ctx context.Context) ([]entity.CountyLeaderboardEntry, error) {
	reports, err := uc.reportRepo.ListByStatus(ctx, entity.ReportStatusCompleted)
	if err != nil {
		return nil, err
	}
	return ComputeLeaderboard(reports), nil
}

// ComputeLeaderboard buckets completed reports by canonical county, so spelling and case
// variants of one county share a bucket. Unknown names keep their prefixed form. Reports without
// a county count toward "Unknown". Ties are broken by county name.
func ComputeLeaderboard(reports []*entity.Report) []entity.CountyLeaderboardEntry {
	byCounty := make(map[string]*entity.CountyLeaderboardEntry)

	for _, report := range reports {
		if report == nil || report.Status != entity.ReportStatusCompleted {
			continue
		}

		name, known := county.Normalize(report.County)
		if !known {
			name = county.Display(report.County)
		}
		if name == "" {
			name = entity.UnknownCounty
		}

		entry, ok := byCounty[name]
		if !ok {
			entry = &entity.CountyLeaderboardEntry{County: name}
			byCounty[name] = entry
		}
		entry.Points += entity.PointsPerCompletedReport
		entry.CompletedReports++
	}

	entries := make([]entity.CountyLeaderboardEntry, 0, len(byCounty))
	for _, entry := range byCounty {
		entries = append(entries, *entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Points != entries[j].Points {
			return entries[i].Points > entries[j].Points
		}
		return entries[i].County < entries[j].County
	})

	return entries
}
