package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/paiban/rescheduler/internal/service"
	"github.com/paiban/rescheduler/pkg/stats"
	"github.com/spf13/cobra"
)

func parseShiftID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("无效的班次ID %q", raw)
	}
	return id, nil
}

// EligiblesCmd 列出班次的候选员工排名
func EligiblesCmd(ac *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "eligibles <shift_id>",
		Short: "列出班次的候选员工排名",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseShiftID(args[0])
			if err != nil {
				return err
			}
			el, err := ac.App.Service.Eligibles(ac.Ctx, id)
			if err != nil {
				return err
			}

			return ac.emit(cmd.OutOrStdout(), el, func(w io.Writer) {
				fmt.Fprintf(w, "%s  [%s]\n\n", el.ShiftLabel, el.Department)
				tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "#\t候选\t工号\t本月工时\t")
				for i, c := range el.Candidates {
					marker := ""
					if i == el.AssignedIndex {
						marker = "*"
					}
					fmt.Fprintf(tw, "%d%s\t%s\t%d\t%.1f\t\n", i, marker, c.Label, c.EmployeeID, c.Hours)
				}
				tw.Flush()
			})
		},
	}
}

// AssignCmd 分配班次，--index 与 --employee 二选一
func AssignCmd(ac *AppContext) *cobra.Command {
	var (
		index    int
		employee int64
	)
	cmd := &cobra.Command{
		Use:   "assign <shift_id>",
		Short: "把班次分配给排名中的员工",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseShiftID(args[0])
			if err != nil {
				return err
			}

			var sel service.Selection
			if cmd.Flags().Changed("index") {
				sel.Index = &index
			}
			if cmd.Flags().Changed("employee") {
				sel.EmployeeID = &employee
			}

			res, err := ac.App.Service.Assign(ac.Ctx, id, sel)
			if err != nil {
				return err
			}
			return ac.emit(cmd.OutOrStdout(), res, func(w io.Writer) { printOutcome(w, res) })
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 0, "候选排名中的位置")
	cmd.Flags().Int64VarP(&employee, "employee", "e", 0, "员工工号")
	cmd.MarkFlagsMutuallyExclusive("index", "employee")
	cmd.MarkFlagsOneRequired("index", "employee")
	return cmd
}

// UnassignCmd 清除班次员工
func UnassignCmd(ac *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <shift_id>",
		Short: "清除班次的员工",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseShiftID(args[0])
			if err != nil {
				return err
			}
			res, err := ac.App.Service.Unassign(ac.Ctx, id)
			if err != nil {
				return err
			}
			return ac.emit(cmd.OutOrStdout(), res, func(w io.Writer) { printOutcome(w, res) })
		},
	}
}

func printOutcome(w io.Writer, res *service.AssignResult) {
	if !res.Changed {
		fmt.Fprintf(w, "无变化: %s\n", res.Label)
		return
	}
	fmt.Fprintf(w, "已更新: %s\n", res.Label)
	if res.Costs != nil {
		fmt.Fprintln(w)
		printPayroll(w, res.Costs)
	}
}

func printPayroll(w io.Writer, report *stats.PayrollReport) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s\t成本\t占比\t\n", report.Month)
	for _, d := range report.Departments {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", d.Department, d.Cost.StringFixed(2), d.Percentage)
	}
	fmt.Fprintf(tw, "Total\t\t%s\t\n", report.Total)
	tw.Flush()
}
