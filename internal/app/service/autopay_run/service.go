package autopay_run

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fatflowers/seatledger/internal/models"
	"github.com/fatflowers/seatledger/pkg/logctx"
	"github.com/fatflowers/seatledger/pkg/tool"
)

type Service struct {
	db  *gorm.DB
	log *zap.SugaredLogger
}

func New(db *gorm.DB, log *zap.SugaredLogger) *Service { return &Service{db: db, log: log} }

var Module = fx.Options(fx.Provide(New))

// Start persists a new run row synchronously so the run id can be reported.
// On failure run.ID is left empty since no row carries it.
func (s *Service) Start(ctx context.Context, run *models.AutopayRun) error {
	if run.ID == "" {
		run.ID = tool.GenerateUUIDV7()
	}
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		run.ID = ""
		return fmt.Errorf("failed to create autopay run: %w", err)
	}
	return nil
}

// Save asynchronously persists the final state of a run. Nil input is ignored.
// The write outlives the caller's cancellation; done, when not nil, is closed
// once the write has finished.
func (s *Service) Save(ctx context.Context, run *models.AutopayRun, done chan<- struct{}) {
	ctx = context.WithoutCancel(ctx)
	go func() {
		if done != nil {
			defer close(done)
		}
		if run == nil {
			return
		}
		if run.ID == "" {
			run.ID = tool.GenerateUUIDV7()
		}
		if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
			logctx.FromCtx(ctx, s.log).Errorw("autopay_run_save_failed", "run_id", run.ID, "err", err)
		}
	}()
}

// Get loads one run by id.
func (s *Service) Get(ctx context.Context, id string) (*models.AutopayRun, error) {
	var run models.AutopayRun
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&run).Error; err != nil {
		return nil, fmt.Errorf("failed to load autopay run %s: %w", id, err)
	}
	return &run, nil
}
