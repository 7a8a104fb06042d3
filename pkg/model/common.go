// Package model 定义排班引擎的核心数据模型
package model

import (
	"cmp"
	"time"
)

// DateLayout 日期格式
const DateLayout = "2006-01-02"

// MonthLayout 月份格式
const MonthLayout = "2006-01"

// Overlaps 判断两个时间区间是否相交
// 区间为开区间：首尾相接（一个结束于另一个开始）不算重叠
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// overlapsOrdered 有序类型的区间相交判断
func overlapsOrdered[T cmp.Ordered](aStart, aEnd, bStart, bEnd T) bool {
	return aStart < bEnd && bStart < aEnd
}

// TimeRange 时间范围
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration 返回时间范围的持续时间
func (tr TimeRange) Duration() time.Duration {
	return tr.End.Sub(tr.Start)
}

// Overlaps 检查两个时间范围是否重叠
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return Overlaps(tr.Start, tr.End, other.Start, other.End)
}

// Contains 检查时间范围是否包含某个时间点
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && t.Before(tr.End)
}

// ClockTime 一天中的时刻（距零点的偏移）
type ClockTime time.Duration

// NewClockTime 由时、分创建时刻
func NewClockTime(hour, minute int) ClockTime {
	return ClockTime(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// ClockOf 提取时间点的时刻部分（精确到分钟）
func ClockOf(t time.Time) ClockTime {
	return NewClockTime(t.Hour(), t.Minute())
}

// ParseClock 解析 HH:MM
func ParseClock(s string) (ClockTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return ClockOf(t), nil
}

// String 返回 HH:MM
func (c ClockTime) String() string {
	d := time.Duration(c)
	return time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC).Add(d).Format("15:04")
}

// On 返回某天该时刻的时间点
func (c ClockTime) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(c))
}

// ClockRange 一天内的时刻范围
type ClockRange struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

// Overlaps 检查两个时刻范围是否重叠（开区间）
func (cr ClockRange) Overlaps(other ClockRange) bool {
	return overlapsOrdered(cr.Start, cr.End, other.Start, other.End)
}

// MonthKey 年月
type MonthKey struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthOf 返回时间点所在的年月
func MonthOf(t time.Time) MonthKey {
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// ParseMonth 解析 YYYY-MM
func ParseMonth(s string) (MonthKey, error) {
	t, err := time.Parse(MonthLayout, s)
	if err != nil {
		return MonthKey{}, err
	}
	return MonthOf(t), nil
}

// String 返回 YYYY-MM
func (m MonthKey) String() string {
	return m.Start(time.UTC).Format(MonthLayout)
}

// MarshalText 序列化为 YYYY-MM
func (m MonthKey) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText 解析 YYYY-MM
func (m *MonthKey) UnmarshalText(text []byte) error {
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Start 返回该月第一天零点
func (m MonthKey) Start(loc *time.Location) time.Time {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
}

// End 返回下月第一天零点
func (m MonthKey) End(loc *time.Location) time.Time {
	return m.Start(loc).AddDate(0, 1, 0)
}

// Contains 检查时间点是否在该月
func (m MonthKey) Contains(t time.Time) bool {
	return t.Year() == m.Year && t.Month() == m.Month
}

// WeekStart 返回时间点所在周的周日零点（周日为一周第一天，与日历视图一致）
func WeekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// SameWeek 检查两个时间点是否在同一周
func SameWeek(a, b time.Time) bool {
	return WeekStart(a).Equal(WeekStart(b.In(a.Location())))
}
