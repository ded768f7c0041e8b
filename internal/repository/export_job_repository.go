package repository

import (
	"errors"

	"github.com/cardmint/internal/models"

	"gorm.io/gorm"
)

// ExportJobRepository 导出任务数据访问接口
type ExportJobRepository interface {
	Create(job *models.ExportJob) error
	GetByID(id uint) (*models.ExportJob, error)
	Update(job *models.ExportJob) error
	List(page, pageSize int) ([]models.ExportJob, int64, error)
	WithTx(tx *gorm.DB) *GormExportJobRepository
}

// GormExportJobRepository GORM 实现
type GormExportJobRepository struct {
	db *gorm.DB
}

// NewExportJobRepository 创建导出任务仓库
func NewExportJobRepository(db *gorm.DB) *GormExportJobRepository {
	return &GormExportJobRepository{db: db}
}

// WithTx 绑定事务
func (r *GormExportJobRepository) WithTx(tx *gorm.DB) *GormExportJobRepository {
	if tx == nil {
		return r
	}
	return &GormExportJobRepository{db: tx}
}

// Create 创建任务
func (r *GormExportJobRepository) Create(job *models.ExportJob) error {
	if job == nil {
		return errors.New("export job is nil")
	}
	return r.db.Create(job).Error
}

// GetByID 获取任务
func (r *GormExportJobRepository) GetByID(id uint) (*models.ExportJob, error) {
	if id == 0 {
		return nil, nil
	}
	var job models.ExportJob
	if err := r.db.First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Update 保存任务
func (r *GormExportJobRepository) Update(job *models.ExportJob) error {
	if job == nil || job.ID == 0 {
		return errors.New("invalid export job")
	}
	return r.db.Save(job).Error
}

// List 分页查询任务
func (r *GormExportJobRepository) List(page, pageSize int) ([]models.ExportJob, int64, error) {
	query := r.db.Model(&models.ExportJob{})
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = applyPagination(query, page, pageSize)
	var jobs []models.ExportJob
	if err := query.Order("id desc").Find(&jobs).Error; err != nil {
		return nil, 0, err
	}
	return jobs, total, nil
}
