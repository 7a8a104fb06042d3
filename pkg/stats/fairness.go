package stats

import (
	"math"
	"sort"
)

// Fairness 员工月度工时分布的公平性指标
type Fairness struct {
	Employees  int     `json:"employees"`
	MeanHours  float64 `json:"mean_hours"`
	StdDev     float64 `json:"std_dev"`
	MaxHours   float64 `json:"max_hours"`
	MinHours   float64 `json:"min_hours"`
	HoursRange float64 `json:"hours_range"`
	// 0 为完全平均，1 为工时全部集中在一人
	Gini float64 `json:"gini"`
	// 最忙一周超过加班阈值的人数
	Overtime int `json:"overtime"`
	// 工时低于期望工时的人数，期望为 0 的不计
	BelowDesired int `json:"below_desired"`
}

// WorkloadFairness 汇总工作量列表的分布情况
func WorkloadFairness(loads []EmployeeWorkload) Fairness {
	f := Fairness{Employees: len(loads)}
	if len(loads) == 0 {
		return f
	}

	hours := make([]float64, len(loads))
	for i, l := range loads {
		hours[i] = l.Hours
		if l.Overtime {
			f.Overtime++
		}
		if l.DesiredHours > 0 && l.Hours < float64(l.DesiredHours) {
			f.BelowDesired++
		}
	}

	f.MeanHours = mean(hours)
	f.StdDev = math.Sqrt(variance(hours, f.MeanHours))
	f.MaxHours, f.MinHours = valueRange(hours)
	f.HoursRange = f.MaxHours - f.MinHours
	f.Gini = gini(hours)
	return f
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// variance 总体方差
func variance(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSquares := 0.0
	for _, v := range values {
		diff := v - mean
		sumSquares += diff * diff
	}
	return sumSquares / float64(len(values))
}

func valueRange(values []float64) (max, min float64) {
	if len(values) == 0 {
		return 0, 0
	}
	max, min = values[0], values[0]
	for _, v := range values[1:] {
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return
}

func gini(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	if sum == 0 {
		return 0
	}

	g := 0.0
	for i, v := range sorted {
		g += (2*float64(i+1) - float64(n) - 1) * v
	}
	g = g / (float64(n) * sum)
	return math.Max(0, math.Min(1, g))
}
