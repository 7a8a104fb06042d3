// Package jobs 定时巡检排班隐患和人工成本
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/paiban/rescheduler/internal/service"
	"github.com/paiban/rescheduler/pkg/logger"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/robfig/cron/v3"
)

// Scheduler 定时任务调度器
type Scheduler struct {
	cron *cron.Cron
	svc  *service.Service
	now  func() time.Time

	timeout time.Duration
}

// New 创建调度器，spec 为标准 5 段 cron 表达式或 @every 写法
func New(svc *service.Service, spec string) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(svc.Location())),
		svc:     svc,
		now:     time.Now,
		timeout: time.Minute,
	}
	if _, err := s.cron.AddFunc(spec, s.run); err != nil {
		return nil, fmt.Errorf("无效的巡检计划 %q: %w", spec, err)
	}
	return s, nil
}

// Start 后台启动
func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Info().Int("jobs", len(s.cron.Entries())).Msg("定时任务已启动")
}

// Stop 停止调度并等待运行中的任务结束
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("定时巡检失败")
	}
}

// RunOnce 巡检本月和下月：刷新隐患数与成本指标
func (s *Scheduler) RunOnce(ctx context.Context) error {
	current := model.MonthOf(s.now().In(s.svc.Location()))
	next := model.MonthOf(current.End(s.svc.Location()))

	for _, month := range []model.MonthKey{current, next} {
		conflicts, err := s.svc.Audit(ctx, month)
		if err != nil {
			return fmt.Errorf("巡检 %s: %w", month, err)
		}
		if _, err := s.svc.Costs(ctx, month); err != nil {
			return fmt.Errorf("计算 %s 成本: %w", month, err)
		}
		logger.Debug().
			Str("month", month.String()).
			Int("hazards", len(conflicts)).
			Msg("定时巡检完成")
	}
	return nil
}
