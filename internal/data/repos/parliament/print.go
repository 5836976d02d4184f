package parliament

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

type PrintRepo interface {
	Upsert(dbc dbctx.Context, rows []*types.Print) ([]*types.Print, error)
	GetByNumber(dbc dbctx.Context, number string) (*types.Print, error)
	GetByNumbers(dbc dbctx.Context, numbers []string) ([]*types.Print, error)
	// ListRecent returns prints ordered by change_date descending, for
	// "what changed lately" style questions.
	ListRecent(dbc dbctx.Context, limit int) ([]*types.Print, error)
}

type printRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPrintRepo(db *gorm.DB, log *logger.Logger) PrintRepo {
	return &printRepo{db: db, log: log.With("repo", "PrintRepo")}
}

func (r *printRepo) Upsert(dbc dbctx.Context, rows []*types.Print) ([]*types.Print, error) {
	if len(rows) == 0 {
		return []*types.Print{}, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "summary", "change_date", "updated_at"}),
		}).
		Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *printRepo) GetByNumber(dbc dbctx.Context, number string) (*types.Print, error) {
	if number == "" {
		return nil, fmt.Errorf("missing print number")
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var row types.Print
	if err := txx.WithContext(dbc.Ctx).
		Where("number = ?", number).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *printRepo) GetByNumbers(dbc dbctx.Context, numbers []string) ([]*types.Print, error) {
	var rows []*types.Print
	if len(numbers) == 0 {
		return rows, nil
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).
		Where("number IN ?", numbers).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *printRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.Print, error) {
	if limit <= 0 {
		limit = 10
	}
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var rows []*types.Print
	if err := txx.WithContext(dbc.Ctx).
		Where("change_date IS NOT NULL").
		Order("change_date DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
