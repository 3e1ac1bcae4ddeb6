package dao

import (
	"strings"
	"time"

	"gorm.io/gorm"

	"vulnhawk/internal/models"
	"vulnhawk/pkg/history"
	"vulnhawk/pkg/scan"
)

type ScanDAO interface {
	SaveScan(scan *models.Scan) error
	GetScanByUUID(uuid string) (*models.Scan, error)
	ListScans() ([]models.Scan, error)
	ListScansWithPagination(page, limit int) ([]models.Scan, int64, error)
	DeleteScan(uuid string) error

	// Store is the subset the orchestrator persists through.
	history.Store
}

type scanDAO struct {
	db *gorm.DB
}

func NewScanDAO(db *gorm.DB) ScanDAO {
	return &scanDAO{db: db}
}

func (dao *scanDAO) SaveScan(scan *models.Scan) error {
	return dao.db.Create(scan).Error
}

func (dao *scanDAO) GetScanByUUID(uuid string) (*models.Scan, error) {
	var scan models.Scan
	if err := dao.db.Where("uuid = ?", uuid).First(&scan).Error; err != nil {
		return nil, err
	}
	return &scan, nil
}

func (dao *scanDAO) ListScans() ([]models.Scan, error) {
	var scans []models.Scan
	if err := dao.db.Order("created_at desc").Limit(50).Find(&scans).Error; err != nil {
		return nil, err
	}
	return scans, nil
}

func (dao *scanDAO) ListScansWithPagination(page, limit int) ([]models.Scan, int64, error) {
	var scans []models.Scan
	var total int64

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	offset := (page - 1) * limit

	if err := dao.db.Model(&models.Scan{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := dao.db.Order("created_at desc").
		Limit(limit).
		Offset(offset).
		Find(&scans).Error; err != nil {
		return nil, 0, err
	}

	return scans, total, nil
}

func (dao *scanDAO) DeleteScan(uuid string) error {
	result := dao.db.Where("uuid = ?", uuid).Delete(&models.Scan{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Persist maps an aggregated result onto the scan row. It lets the
// orchestrator use the database as its history store.
func (dao *scanDAO) Persist(result *scan.Result) error {
	now := time.Now().Unix()
	row := &models.Scan{
		UUID:       result.ID,
		Target:     result.Target,
		Status:     string(result.Status),
		Project:    result.Project,
		Tools:      strings.Join(result.ToolOrder, ","),
		OutputDir:  result.OutputDir,
		DurationMS: result.Duration.Milliseconds(),
		Total:      result.Summary.Total,
		Critical:   result.Summary.Critical,
		High:       result.Summary.High,
		Medium:     result.Summary.Medium,
		Low:        result.Summary.Low,
		Info:       result.Summary.Info,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return dao.SaveScan(row)
}

// Recent adapts database rows to history entries, newest first.
func (dao *scanDAO) Recent(n int) ([]history.Entry, error) {
	var rows []models.Scan
	q := dao.db.Order("created_at desc")
	if n > 0 {
		q = q.Limit(n)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]history.Entry, 0, len(rows))
	for _, row := range rows {
		entry := history.Entry{
			ScanID:      row.UUID,
			Target:      row.Target,
			Status:      row.Status,
			StartedAt:   time.Unix(row.CreatedAt, 0),
			Duration:    (time.Duration(row.DurationMS) * time.Millisecond).String(),
			OutputDir:   row.OutputDir,
			Project:     row.Project,
			PersistedAt: time.Unix(row.CreatedAt, 0),
			Summary: scan.Summary{
				Total:    row.Total,
				Critical: row.Critical,
				High:     row.High,
				Medium:   row.Medium,
				Low:      row.Low,
				Info:     row.Info,
			},
		}
		if row.Tools != "" {
			entry.Tools = strings.Split(row.Tools, ",")
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
