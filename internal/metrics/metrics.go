// Package metrics 以 Prometheus 文本格式暴露服务指标
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// 指标名称
const (
	HTTPRequestsTotal      = "rescheduler_http_requests_total"
	HTTPRequestDuration    = "rescheduler_http_request_duration_seconds"
	RankingsTotal          = "rescheduler_rankings_total"
	RankingDuration        = "rescheduler_ranking_duration_seconds"
	RankingCandidates      = "rescheduler_ranking_candidates"
	AssignmentsTotal       = "rescheduler_assignments_total"
	PayrollTotalRatio      = "rescheduler_payroll_total_ratio_percent"
	PayrollRecomputesTotal = "rescheduler_payroll_recomputes_total"
	HazardsFound           = "rescheduler_hazards"
	DBConnections          = "rescheduler_db_connections"
	DBSlowQueriesTotal     = "rescheduler_db_slow_queries_total"
)

const labelSep = "\xff"

// Registry 指标注册表
type Registry struct {
	mu         sync.RWMutex
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	mu     sync.RWMutex
	values map[string]float64
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	mu     sync.RWMutex
	values map[string]float64
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	mu      sync.RWMutex
	counts  map[string][]uint64
	sums    map[string]float64
}

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Default 获取全局注册表，首次调用时注册默认指标
func Default() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
		defaultRegistry.registerDefaults()
	})
	return defaultRegistry
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		counters:   make(map[string]*Counter),
		gauges:     make(map[string]*Gauge),
		histograms: make(map[string]*Histogram),
	}
}

func (r *Registry) registerDefaults() {
	r.NewCounter(HTTPRequestsTotal, "HTTP请求总数", "method", "path", "status")
	r.NewHistogram(HTTPRequestDuration, "HTTP请求延迟",
		[]float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		"method", "path")

	r.NewCounter(RankingsTotal, "候选人排序次数", "department")
	r.NewHistogram(RankingDuration, "候选人排序耗时",
		[]float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		"department")
	r.NewHistogram(RankingCandidates, "每次排序的候选人数",
		[]float64{0, 1, 2, 5, 10, 20, 50, 100})

	r.NewCounter(AssignmentsTotal, "分配操作次数", "outcome")

	r.NewGauge(PayrollTotalRatio, "人工成本占平均营收的百分比，无数据时为 -1", "month")
	r.NewCounter(PayrollRecomputesTotal, "人工成本重算次数", "result")

	r.NewGauge(HazardsFound, "月度排班隐患数", "month")
	r.NewGauge(DBConnections, "数据库连接数", "state")
	r.NewCounter(DBSlowQueriesTotal, "慢查询次数", "op")
}

// NewCounter 注册计数器，同名时返回已有的
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters[name]; ok {
		return c
	}
	c := &Counter{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}
	r.counters[name] = c
	return c
}

// NewGauge 注册仪表盘
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	if g, ok := r.gauges[name]; ok {
		return g
	}
	g := &Gauge{Name: name, Help: help, Labels: labels, values: make(map[string]float64)}
	r.gauges[name] = g
	return g
}

// NewHistogram 注册直方图，buckets 须升序
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.histograms[name]; ok {
		return h
	}
	h := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]uint64),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = h
	return h
}

// Counter 按名称获取计数器
func (r *Registry) Counter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// Gauge 按名称获取仪表盘
func (r *Registry) Gauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// Histogram 按名称获取直方图
func (r *Registry) Histogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 加一
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(v float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += v
}

// Value 读取当前值
func (c *Counter) Value(labelValues ...string) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[labelKey(labelValues)]
}

// Set 设置值
func (g *Gauge) Set(v float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = v
}

// Add 增加指定值
func (g *Gauge) Add(v float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += v
}

// Value 读取当前值
func (g *Gauge) Value(labelValues ...string) float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.values[labelKey(labelValues)]
}

// Observe 记录一次观测
func (h *Histogram) Observe(v float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	counts, ok := h.counts[key]
	if !ok {
		counts = make([]uint64, len(h.Buckets)+1)
		h.counts[key] = counts
	}
	// 非累计计数，输出时再累加
	idx := sort.SearchFloat64s(h.Buckets, v)
	counts[idx]++
	h.sums[key] += v
}

// Count 返回观测次数
func (h *Histogram) Count(labelValues ...string) uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var n uint64
	for _, c := range h.counts[labelKey(labelValues)] {
		n += c
	}
	return n
}

func labelKey(values []string) string {
	return strings.Join(values, labelSep)
}

func formatLabels(names []string, key string, extra ...string) string {
	var values []string
	if key != "" || len(names) > 0 {
		values = strings.Split(key, labelSep)
	}
	pairs := make([]string, 0, len(names)+1)
	for i, name := range names {
		val := ""
		if i < len(values) {
			val = values[i]
		}
		pairs = append(pairs, fmt.Sprintf("%s=%q", name, val))
	}
	pairs = append(pairs, extra...)
	if len(pairs) == 0 {
		return ""
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteTo 以文本格式输出全部指标，按名称排序
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var b strings.Builder

	for _, name := range sortedKeys(r.counters) {
		c := r.counters[name]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s counter\n", c.Name, c.Help, c.Name)
		c.mu.RLock()
		for _, key := range sortedKeys(c.values) {
			fmt.Fprintf(&b, "%s%s %s\n", c.Name, formatLabels(c.Labels, key), formatFloat(c.values[key]))
		}
		c.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.gauges) {
		g := r.gauges[name]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s gauge\n", g.Name, g.Help, g.Name)
		g.mu.RLock()
		for _, key := range sortedKeys(g.values) {
			fmt.Fprintf(&b, "%s%s %s\n", g.Name, formatLabels(g.Labels, key), formatFloat(g.values[key]))
		}
		g.mu.RUnlock()
	}

	for _, name := range sortedKeys(r.histograms) {
		h := r.histograms[name]
		fmt.Fprintf(&b, "# HELP %s %s\n# TYPE %s histogram\n", h.Name, h.Help, h.Name)
		h.mu.RLock()
		for _, key := range sortedKeys(h.counts) {
			counts := h.counts[key]
			var cumulative uint64
			for i, bound := range h.Buckets {
				cumulative += counts[i]
				le := fmt.Sprintf("le=%q", formatFloat(bound))
				fmt.Fprintf(&b, "%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, le), cumulative)
			}
			cumulative += counts[len(h.Buckets)]
			fmt.Fprintf(&b, "%s_bucket%s %d\n", h.Name, formatLabels(h.Labels, key, `le="+Inf"`), cumulative)
			fmt.Fprintf(&b, "%s_sum%s %s\n", h.Name, formatLabels(h.Labels, key), formatFloat(h.sums[key]))
			fmt.Fprintf(&b, "%s_count%s %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
		}
		h.mu.RUnlock()
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// Handler 返回全局注册表的 HTTP 处理器
func Handler() http.Handler {
	return HandlerFor(Default())
}

// HandlerFor 返回指定注册表的 HTTP 处理器
func HandlerFor(r *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = r.WriteTo(w)
	})
}

// RecordRequest 记录 HTTP 请求
func RecordRequest(method, path string, status int, d time.Duration) {
	r := Default()
	r.Counter(HTTPRequestsTotal).Inc(method, path, strconv.Itoa(status))
	r.Histogram(HTTPRequestDuration).Observe(d.Seconds(), method, path)
}

// RecordRanking 记录一次候选人排序
func RecordRanking(department string, candidates int, d time.Duration) {
	r := Default()
	r.Counter(RankingsTotal).Inc(department)
	r.Histogram(RankingDuration).Observe(d.Seconds(), department)
	r.Histogram(RankingCandidates).Observe(float64(candidates))
}

// RecordAssignment 记录分配结果
func RecordAssignment(changed bool) {
	outcome := "no_change"
	if changed {
		outcome = "changed"
	}
	Default().Counter(AssignmentsTotal).Inc(outcome)
}

// RecordAssignmentConflict 记录写回时的并发冲突
func RecordAssignmentConflict() {
	Default().Counter(AssignmentsTotal).Inc("conflict")
}

// RecordPayroll 记录月度总成本比例，noData 时写入 -1
func RecordPayroll(month string, total int64, noData bool) {
	r := Default()
	if noData {
		r.Gauge(PayrollTotalRatio).Set(-1, month)
		r.Counter(PayrollRecomputesTotal).Inc("no_data")
		return
	}
	r.Gauge(PayrollTotalRatio).Set(float64(total), month)
	r.Counter(PayrollRecomputesTotal).Inc("ok")
}

// SetHazards 设置月度隐患数
func SetHazards(month string, count int) {
	Default().Gauge(HazardsFound).Set(float64(count), month)
}

// SetDBConnections 设置数据库连接池状态
func SetDBConnections(open, inUse, idle int) {
	g := Default().Gauge(DBConnections)
	g.Set(float64(open), "open")
	g.Set(float64(inUse), "in_use")
	g.Set(float64(idle), "idle")
}

// RecordSlowQuery 记录一次慢查询
func RecordSlowQuery(op string) {
	Default().Counter(DBSlowQueriesTotal).Inc(op)
}
