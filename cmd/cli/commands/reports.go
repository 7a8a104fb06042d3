package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/paiban/rescheduler/pkg/stats"
	"github.com/spf13/cobra"
)

// CostsCmd 月度人工成本
func CostsCmd(ac *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "costs <YYYY-MM>",
		Short: "各部门人工成本占平均营收的百分比",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args[0])
			if err != nil {
				return err
			}
			report, err := ac.App.Service.Costs(ac.Ctx, month)
			if err != nil {
				return err
			}
			return ac.emit(cmd.OutOrStdout(), report, func(w io.Writer) { printPayroll(w, report) })
		},
	}
}

// AuditCmd 月度排班隐患
func AuditCmd(ac *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "audit <YYYY-MM>",
		Short: "列出某月已分配班次中的隐患",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args[0])
			if err != nil {
				return err
			}
			conflicts, err := ac.App.Service.Audit(ac.Ctx, month)
			if err != nil {
				return err
			}

			return ac.emit(cmd.OutOrStdout(), conflicts, func(w io.Writer) {
				if len(conflicts) == 0 {
					fmt.Fprintf(w, "%s 没有隐患\n", month)
					return
				}
				fmt.Fprintf(w, "%s 共 %d 条隐患:\n", month, len(conflicts))
				for _, c := range conflicts {
					fmt.Fprintf(w, "  [%s] %s\n", c.Severity, c.Message)
				}
			})
		},
	}
}

// WorkloadCmd 员工月度工时
func WorkloadCmd(ac *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "workload <YYYY-MM>",
		Short: "员工月度工时与最忙一周",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args[0])
			if err != nil {
				return err
			}
			loads, err := ac.App.Service.Workload(ac.Ctx, month)
			if err != nil {
				return err
			}

			fairness := stats.WorkloadFairness(loads)
			payload := struct {
				Employees []stats.EmployeeWorkload `json:"employees"`
				Fairness  stats.Fairness           `json:"fairness"`
			}{loads, fairness}

			return ac.emit(cmd.OutOrStdout(), payload, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "工号\t姓名\t班次\t工时\t期望\t最忙一周\t")
				for _, l := range loads {
					flag := ""
					if l.Overtime {
						flag = " 加班"
					}
					fmt.Fprintf(tw, "%d\t%s\t%d\t%.1f\t%d\t%.1f%s\t\n",
						l.EmployeeID, l.Name, l.ShiftCount, l.Hours, l.DesiredHours, l.PeakWeekHours, flag)
				}
				tw.Flush()
				fmt.Fprintf(w, "\n人均 %.1f 小时，标准差 %.1f，基尼系数 %.2f，加班 %d 人\n",
					fairness.MeanHours, fairness.StdDev, fairness.Gini, fairness.Overtime)
			})
		},
	}
}

// CoverageCmd 月度班次覆盖情况
func CoverageCmd(ac *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "coverage <YYYY-MM>",
		Short: "各部门已分配班次占比及未分配班次",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args[0])
			if err != nil {
				return err
			}
			report, err := ac.App.Service.Coverage(ac.Ctx, month)
			if err != nil {
				return err
			}

			return ac.emit(cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprintf(w, "%s 覆盖率 %.0f%% (%d/%d)\n\n",
					month, report.OverallCoverage, report.AssignedShifts, report.TotalShifts)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "部门\t班次\t已分配\t覆盖率\t未分配工时\t")
				for _, d := range report.Departments {
					fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f%%\t%.1f\t\n",
						d.Department, d.TotalShifts, d.Assigned, d.CoverageRate, d.UnassignedHours)
				}
				tw.Flush()
				for _, u := range report.Uncovered {
					fmt.Fprintf(w, "  未分配 %s %s [%s] %s\n", u.Date, u.Label, u.Department, u.ShiftID)
				}
			})
		},
	}
}

// AutofillCmd 自动填充空班次
func AutofillCmd(ac *AppContext) *cobra.Command {
	var department string
	cmd := &cobra.Command{
		Use:   "autofill <YYYY-MM>",
		Short: "按时间顺序把空班次分配给排名第一的员工",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args[0])
			if err != nil {
				return err
			}
			res, err := ac.App.Service.Autofill(ac.Ctx, month, department)
			if err != nil {
				return err
			}

			return ac.emit(cmd.OutOrStdout(), res, func(w io.Writer) {
				fmt.Fprintf(w, "已分配 %d 个班次，跳过 %d 个\n", len(res.Filled), res.Skipped)
				for _, f := range res.Filled {
					fmt.Fprintf(w, "  %s  %s  [%s]\n", f.ShiftID, f.Label, f.Department)
				}
				if res.Costs != nil {
					fmt.Fprintln(w)
					printPayroll(w, res.Costs)
				}
			})
		},
	}
	cmd.Flags().StringVarP(&department, "department", "d", "", "只处理该部门，默认全部")
	return cmd
}

// ExportCmd 导出 Excel 日历
func ExportCmd(ac *AppContext) *cobra.Command {
	var (
		version string
		out     string
	)
	cmd := &cobra.Command{
		Use:   "export <YYYY-MM>",
		Short: "导出某月排班日历、不可用时段和人工成本到 Excel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := parseMonthArg(args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = fmt.Sprintf("schedule-%s.xlsx", month)
			}

			var buf bytes.Buffer
			if err := ac.App.Service.Export(ac.Ctx, month, version, &buf); err != nil {
				return err
			}
			if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("写入 %s 失败: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导出 %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&version, "version", "v", "", "写入表头的版本号")
	cmd.Flags().StringVarP(&out, "out", "o", "", "输出文件，默认 schedule-YYYY-MM.xlsx")
	return cmd
}

// ImportCmd 导入 YAML 初始数据
func ImportCmd(ac *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <seed.yaml>",
		Short: "导入部门、员工、班次和营收数据",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ac.App.Import(ac.Ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导入 %s\n", args[0])
			return nil
		},
	}
}
