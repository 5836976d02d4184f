package services

import (
	"fmt"

	"github.com/sejmwatch/sejmwatch-backend/internal/data/repos"
	types "github.com/sejmwatch/sejmwatch-backend/internal/domain"
	"github.com/sejmwatch/sejmwatch-backend/internal/pkg/dbctx"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/apierr"
	"github.com/sejmwatch/sejmwatch-backend/internal/platform/logger"
)

type PrintService interface {
	Recent(dbc dbctx.Context, limit int) ([]*types.Print, error)
	Get(dbc dbctx.Context, number string) (*types.Print, error)
}

type printService struct {
	log    *logger.Logger
	prints repos.PrintRepo
}

func NewPrintService(log *logger.Logger, prints repos.PrintRepo) PrintService {
	return &printService{log: log.With("service", "PrintService"), prints: prints}
}

func (ps *printService) Recent(dbc dbctx.Context, limit int) ([]*types.Print, error) {
	return ps.prints.ListRecent(dbc, limit)
}

func (ps *printService) Get(dbc dbctx.Context, number string) (*types.Print, error) {
	row, err := ps.prints.GetByNumber(dbc, number)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.New(404, "print_not_found", fmt.Errorf("print %s not found", number))
	}
	return row, nil
}
