// Package livedata derives per-day operational metrics for a machine
// from its raw telemetry readings. Computation is pure: the same
// profile, readings and instant always produce the same record, and no
// state is kept between invocations.
package livedata

import (
	"math"
	"time"

	"pmms-backend/internal/localtime"
	"pmms-backend/internal/model"
)

// Status values reported for a machine's instantaneous state.
const (
	StatusOn      = "on"
	StatusOff     = "off"
	StatusUnknown = "unknown"
)

// Record is the derived-metrics output for one machine and one local
// calendar day. It is recomputed per request and never persisted.
type Record struct {
	MachineID            string            `json:"machine_id"`
	MachineName          string            `json:"machine_name"`
	MachineType          model.MachineType `json:"machine_type"`
	Date                 string            `json:"date"`
	ActualStartTime      *string           `json:"actual_start_time"`
	LateStartMinutes     int               `json:"late_start_minutes"`
	TotalOnTimeMinutes   int               `json:"total_on_time_minutes"`
	TotalOffTimeMinutes  int               `json:"total_off_time_minutes"`
	CurrentStatus        string            `json:"current_status"`
	EfficiencyPercentage int               `json:"efficiency_percentage"`
	EarlyStopMinutes     int               `json:"early_stop_minutes"`
	ScheduledStartTime   string            `json:"scheduled_start_time"`
	ScheduledStopTime    string            `json:"scheduled_stop_time"`
	LastUpdated          *time.Time        `json:"last_updated"`
	LastValue            *float64          `json:"last_value"`
}

// Engine computes derived metrics under a fixed local offset and
// staleness threshold. It has no mutable state; concurrent use is safe.
type Engine struct {
	Offset    localtime.Offset
	Staleness time.Duration
}

// NewEngine creates an engine for the given local offset and staleness
// threshold (upload frequency + allowed deviation).
func NewEngine(offset localtime.Offset, staleness time.Duration) *Engine {
	return &Engine{Offset: offset, Staleness: staleness}
}

// noData returns the record used when a machine has no readings today.
func (e *Engine) noData(m *model.Machine, now time.Time) Record {
	return Record{
		MachineID:          m.MachineID,
		MachineName:        m.MachineName,
		MachineType:        m.MachineType,
		Date:               e.Offset.Date(now),
		CurrentStatus:      StatusUnknown,
		ScheduledStartTime: m.ScheduledStartTime,
		ScheduledStopTime:  m.ScheduledStopTime,
	}
}

// Compute derives the full metrics record for one machine given its
// ordered readings for the local day containing now. Readings must be
// ascending by timestamp.
func (e *Engine) Compute(m *model.Machine, readings []model.Reading, now time.Time) Record {
	dayStart, dayEnd := e.Offset.DayWindow(now)

	if len(readings) == 0 {
		return e.noData(m, now)
	}
	// Defensive check against a caller scoping bug: the first reading
	// must fall inside today's window.
	first := readings[0].Timestamp
	if first.Before(dayStart) || !first.Before(dayEnd) {
		return e.noData(m, now)
	}

	nowMin := e.Offset.MinuteOfDay(now)
	startMin, _ := localtime.ParseClock(m.ScheduledStartTime)
	stopMin, _ := localtime.ParseClock(m.ScheduledStopTime)

	actualStart := readings[0].Timestamp
	lateStart := e.Offset.MinuteOfDay(actualStart) - startMin
	if lateStart < 0 {
		lateStart = 0
	}

	// Accumulation never extends past the scheduled shift end, even if
	// now is later in the day.
	limit := now
	if nowMin > stopMin {
		limit = dayStart.Add(time.Duration(stopMin) * time.Minute)
	}

	var onSeconds float64
	switch m.MachineType {
	case model.TypeOnOff:
		onSeconds = e.onTimeOnOff(readings, limit)
	case model.TypeCounter:
		onSeconds = onTimeCounter(readings, m.PartsPerHour, limit)
	case model.TypeCurrent:
		onSeconds = e.onTimeCurrent(readings, m.OnCurrent, limit)
	}
	onMinutes := int(math.Round(onSeconds / 60))

	elapsed := elapsedShiftMinutes(nowMin, startMin, stopMin)

	// Off-time is meaningful only within shift hours.
	offMinutes := elapsed - onMinutes
	if offMinutes < 0 {
		offMinutes = 0
	}

	efficiency := 0
	if elapsed > 0 {
		efficiency = int(math.Round(float64(onMinutes) / float64(elapsed) * 100))
	}
	// Sensor noise or shift-boundary overlap can push past 100.
	if efficiency > 100 {
		efficiency = 100
	}

	status := e.currentStatus(m, readings, now)
	earlyStop := e.earlyStopMinutes(m, readings, status, stopMin)

	startClock := e.Offset.Clock(actualStart)
	last := readings[len(readings)-1]
	lastUpdated := last.Timestamp
	lastValue := last.Value

	return Record{
		MachineID:            m.MachineID,
		MachineName:          m.MachineName,
		MachineType:          m.MachineType,
		Date:                 e.Offset.Date(actualStart),
		ActualStartTime:      &startClock,
		LateStartMinutes:     lateStart,
		TotalOnTimeMinutes:   onMinutes,
		TotalOffTimeMinutes:  offMinutes,
		CurrentStatus:        status,
		EfficiencyPercentage: efficiency,
		EarlyStopMinutes:     earlyStop,
		ScheduledStartTime:   m.ScheduledStartTime,
		ScheduledStopTime:    m.ScheduledStopTime,
		LastUpdated:          &lastUpdated,
		LastValue:            &lastValue,
	}
}

// elapsedShiftMinutes returns how much of the scheduled shift has
// already passed as of nowMin, clamped to the shift's own bounds.
func elapsedShiftMinutes(nowMin, startMin, stopMin int) int {
	var elapsed int
	switch {
	case nowMin < startMin:
		elapsed = 0
	case nowMin > stopMin:
		elapsed = stopMin - startMin
	default:
		elapsed = nowMin - startMin
	}
	if elapsed < 0 {
		elapsed = 0
	}
	return elapsed
}

// onTimeOnOff walks consecutive reading pairs and counts a pair's
// duration as on-time when both samples report 1 and the unclamped gap
// between them is below the staleness threshold. A final "on" sample
// contributes an open segment up to the limit, gated the same way.
func (e *Engine) onTimeOnOff(readings []model.Reading, limit time.Time) float64 {
	var total float64
	for i := 0; i < len(readings)-1; i++ {
		cur, next := readings[i], readings[i+1]
		if !cur.Timestamp.Before(limit) {
			break
		}
		if cur.Value != 1 || next.Value != 1 {
			continue
		}
		// The staleness gate uses the raw gap, not the clamped one: a
		// long silent dropout between two "on" samples is not
		// continuous running even if the limit truncates it.
		gap := next.Timestamp.Sub(cur.Timestamp)
		if gap >= e.Staleness {
			continue
		}
		end := next.Timestamp
		if end.After(limit) {
			end = limit
		}
		if d := end.Sub(cur.Timestamp); d > 0 {
			total += d.Seconds()
		}
	}

	last := readings[len(readings)-1]
	if last.Value == 1 && last.Timestamp.Before(limit) {
		if d := limit.Sub(last.Timestamp); d > 0 && d < e.Staleness {
			total += d.Seconds()
		}
	}
	return total
}

// onTimeCounter credits each strictly-increasing pair with the smaller
// of the clamped elapsed duration and the theoretical production time
// for the parts produced. A counter report proves activity at its own
// timestamp, so no staleness gate applies.
func onTimeCounter(readings []model.Reading, partsPerHour int, limit time.Time) float64 {
	if partsPerHour <= 0 {
		return 0
	}
	secondsPerPart := 3600 / float64(partsPerHour)

	var total float64
	for i := 0; i < len(readings)-1; i++ {
		cur, next := readings[i], readings[i+1]
		if !cur.Timestamp.Before(limit) {
			break
		}
		if next.Value <= cur.Value {
			continue
		}
		end := next.Timestamp
		if end.After(limit) {
			end = limit
		}
		duration := end.Sub(cur.Timestamp).Seconds()
		if duration < 0 {
			duration = 0
		}
		theoretical := (next.Value - cur.Value) * secondsPerPart
		total += math.Min(duration, theoretical)
	}
	return total
}

// onTimeCurrent mirrors onTimeOnOff with "active" meaning the drawn
// current is at or above the machine's on threshold.
func (e *Engine) onTimeCurrent(readings []model.Reading, onCurrent float64, limit time.Time) float64 {
	var total float64
	for i := 0; i < len(readings)-1; i++ {
		cur, next := readings[i], readings[i+1]
		if !cur.Timestamp.Before(limit) {
			break
		}
		if cur.Value < onCurrent || next.Value < onCurrent {
			continue
		}
		gap := next.Timestamp.Sub(cur.Timestamp)
		if gap >= e.Staleness {
			continue
		}
		end := next.Timestamp
		if end.After(limit) {
			end = limit
		}
		if d := end.Sub(cur.Timestamp); d > 0 {
			total += d.Seconds()
		}
	}

	last := readings[len(readings)-1]
	if last.Value >= onCurrent && last.Timestamp.Before(limit) {
		if d := limit.Sub(last.Timestamp); d > 0 && d < e.Staleness {
			total += d.Seconds()
		}
	}
	return total
}

// currentStatus derives the machine's instantaneous state from the
// latest readings. It is independent of the on-time accumulators.
func (e *Engine) currentStatus(m *model.Machine, readings []model.Reading, now time.Time) string {
	latest := readings[len(readings)-1]

	// No recent data means the machine is assumed stopped.
	if now.Sub(latest.Timestamp) > e.Staleness {
		return StatusOff
	}

	switch m.MachineType {
	case model.TypeOnOff, model.TypeCurrent:
		if SampleActive(m, readings, len(readings)-1) {
			return StatusOn
		}
		return StatusOff
	case model.TypeCounter:
		// A counter is "on" when it produces at or above 80% of its
		// expected rate since the previous report.
		if len(readings) < 2 {
			return StatusUnknown
		}
		prev := readings[len(readings)-2]
		elapsedMin := latest.Timestamp.Sub(prev.Timestamp).Minutes()
		expected := float64(m.PartsPerHour) / 60 * elapsedMin
		actual := latest.Value - prev.Value
		if actual >= expected*0.8 {
			return StatusOn
		}
		return StatusOff
	}
	return StatusUnknown
}

// earlyStopMinutes scans backward for the most recent active sample and
// reports how far before the scheduled stop it occurred. Only computed
// when the machine is currently off; a day with no active sample at all
// yields 0, leaving the never-started case to late_start_minutes.
func (e *Engine) earlyStopMinutes(m *model.Machine, readings []model.Reading, status string, stopMin int) int {
	if status != StatusOff || len(readings) == 0 {
		return 0
	}
	for i := len(readings) - 1; i >= 0; i-- {
		if !SampleActive(m, readings, i) {
			continue
		}
		lastActiveMin := e.Offset.MinuteOfDay(readings[i].Timestamp)
		if stopMin > lastActiveMin {
			return stopMin - lastActiveMin
		}
		return 0
	}
	return 0
}

// SampleActive reports whether reading i counts as "machine running"
// for the given profile. OnOff machines are active on value 1, current
// machines at or above the on threshold, and counter machines when the
// value increased relative to the previous sample (a first sample is
// active if it is already positive).
func SampleActive(m *model.Machine, readings []model.Reading, i int) bool {
	switch m.MachineType {
	case model.TypeOnOff:
		return readings[i].Value == 1
	case model.TypeCurrent:
		return readings[i].Value >= m.OnCurrent
	case model.TypeCounter:
		if i > 0 {
			return readings[i].Value > readings[i-1].Value
		}
		return readings[i].Value > 0
	}
	return false
}
