package repository

import (
	"time"

	"go-pos-terminal/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SubmissionRepository interface {
	Create(record *model.SubmissionRecord) error
	List(filter SubmissionFilter) ([]model.SubmissionRecord, error)
	GetSummary(startDate, endDate time.Time) (*SubmissionSummary, error)
}

type SubmissionFilter struct {
	Cashier string
	Status  model.SubmissionStatus
	Limit   int
}

// SubmissionSummary aggregates accepted sales over a period.
type SubmissionSummary struct {
	Accepted int64           `json:"accepted"`
	Failed   int64           `json:"failed"`
	Revenue  decimal.Decimal `json:"revenue"`
}

type submissionRepo struct {
	db *gorm.DB
}

func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db}
}

func (r *submissionRepo) Create(record *model.SubmissionRecord) error {
	return r.db.Create(record).Error
}

func (r *submissionRepo) List(filter SubmissionFilter) ([]model.SubmissionRecord, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	q := r.db.Order("created_at DESC").Limit(limit)
	if filter.Cashier != "" {
		q = q.Where("cashier = ?", filter.Cashier)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var records []model.SubmissionRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *submissionRepo) GetSummary(startDate, endDate time.Time) (*SubmissionSummary, error) {
	var row struct {
		Accepted int64
		Failed   int64
		Revenue  decimal.Decimal
	}
	err := r.db.Model(&model.SubmissionRecord{}).
		Select(`
			COUNT(*) FILTER (WHERE status = ?) as accepted,
			COUNT(*) FILTER (WHERE status = ?) as failed,
			COALESCE(SUM(CASE WHEN status = ? THEN total ELSE 0 END), 0) as revenue
		`, model.SubmissionSubmitted, model.SubmissionFailed, model.SubmissionSubmitted).
		Where("created_at BETWEEN ? AND ?", startDate, endDate).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}
	return &SubmissionSummary{Accepted: row.Accepted, Failed: row.Failed, Revenue: row.Revenue}, nil
}
