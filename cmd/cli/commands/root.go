// Package commands 调班命令行的子命令
package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/paiban/rescheduler/internal/app"
	"github.com/paiban/rescheduler/internal/config"
	"github.com/paiban/rescheduler/pkg/logger"
	"github.com/paiban/rescheduler/pkg/model"
	"github.com/spf13/cobra"
)

// AppContext 子命令共享的依赖，App 在 PersistentPreRunE 中初始化
type AppContext struct {
	Ctx context.Context
	App *app.App

	configPath string
	store      string
	seedFile   string
	jsonOutput bool
}

// NewRootCmd 创建根命令。ac.App 已设置时跳过初始化
func NewRootCmd(ac *AppContext) *cobra.Command {
	root := &cobra.Command{
		Use:   "rescheduler",
		Short: "Rescheduler 调班工具",
		Long:  `按员工可用性为班次排名候选人、分配或清除班次员工，并查看月度人工成本与排班隐患。`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ac.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if ac.App != nil {
				return ac.App.Close()
			}
			return nil
		},
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&ac.configPath, "config", "c", "", "YAML 配置文件（默认读取 RESCHEDULER_CONFIG）")
	flags.StringVar(&ac.store, "store", "", "存储驱动 postgres 或 memory，覆盖配置")
	flags.StringVar(&ac.seedFile, "seed", "", "内存存储的初始数据文件")
	flags.BoolVar(&ac.jsonOutput, "json", false, "以 JSON 输出")

	root.AddCommand(
		EligiblesCmd(ac),
		AssignCmd(ac),
		UnassignCmd(ac),
		CostsCmd(ac),
		AuditCmd(ac),
		WorkloadCmd(ac),
		CoverageCmd(ac),
		AutofillCmd(ac),
		ExportCmd(ac),
		ImportCmd(ac),
	)
	return root
}

func (ac *AppContext) init(cmd *cobra.Command) error {
	if ac.Ctx == nil {
		ac.Ctx = cmd.Context()
	}
	if ac.App != nil {
		return nil
	}

	var (
		cfg *config.Config
		err error
	)
	if ac.configPath != "" {
		cfg, err = config.LoadFrom(ac.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if ac.store != "" {
		cfg.Store.Driver = ac.store
	}
	if ac.seedFile != "" {
		cfg.Store.SeedFile = ac.seedFile
	}

	lc := app.LoggerConfig(cfg)
	lc.Output = "stderr"
	logger.Init(lc)

	ac.App, err = app.Open(ac.Ctx, cfg)
	if err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}
	return nil
}

// emit 在 --json 时输出 JSON，否则调用 text 输出文本
func (ac *AppContext) emit(w io.Writer, v interface{}, text func(io.Writer)) error {
	if ac.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

func parseMonthArg(raw string) (model.MonthKey, error) {
	month, err := model.ParseMonth(raw)
	if err != nil {
		return model.MonthKey{}, fmt.Errorf("月份格式应为 YYYY-MM: %q", raw)
	}
	return month, nil
}
