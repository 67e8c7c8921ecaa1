package dashboard

import (
	"context"

	"github.com/Bervaline/Library-Management-System/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// lowStockThreshold is the copy count below which a book shows up in the
// low-stock panel.
const lowStockThreshold = 5

type Stats struct {
	TotalBooks         int                   `json:"total_books"`
	TotalMembers       int                   `json:"total_members"`
	TotalTransactions  int                   `json:"total_transactions"`
	IssuedCount        int                   `json:"issued_count"`
	ReturnedCount      int                   `json:"returned_count"`
	ReturnRate         float64               `json:"return_rate"`
	LowStockCount      int                   `json:"low_stock_count"`
	RecentTransactions []*models.Transaction `json:"recent_transactions"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	var err error

	stats.TotalBooks, err = svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	stats.TotalMembers, err = svc.db.
		NewSelect().
		Model((*models.Member)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	stats.TotalTransactions, err = svc.db.
		NewSelect().
		Model((*models.Transaction)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	stats.IssuedCount, err = svc.db.
		NewSelect().
		Model((*models.Transaction)(nil)).
		Where("status = ?", models.TransactionStatusIssued).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	stats.ReturnedCount = stats.TotalTransactions - stats.IssuedCount
	if stats.TotalTransactions > 0 {
		stats.ReturnRate = float64(stats.ReturnedCount) / float64(stats.TotalTransactions) * 100
	}

	stats.LowStockCount, err = svc.db.
		NewSelect().
		Model((*models.Book)(nil)).
		Where("available_copies < ?", lowStockThreshold).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	recent := []*models.Transaction{}
	err = svc.db.
		NewSelect().
		Model(&recent).
		Relation("Member").
		Relation("Book").
		Order("t.issue_date DESC").
		Limit(5).
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	stats.RecentTransactions = recent

	return stats, nil
}
