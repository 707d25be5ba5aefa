package model

// TimeWindow selects the relative date range used to filter build queries.
type TimeWindow int

const (
	TimeWindowToday TimeWindow = iota
	TimeWindowThisWeek
	TimeWindowThisMonth
)

// DefaultTimeWindow is selected on startup.
const DefaultTimeWindow = TimeWindowToday

var timeWindowLabels = map[TimeWindow]string{
	TimeWindowToday:     "Today",
	TimeWindowThisWeek:  "This Week",
	TimeWindowThisMonth: "This Month",
}

var timeWindowTokens = map[TimeWindow]string{
	TimeWindowToday:     "day",
	TimeWindowThisWeek:  "week",
	TimeWindowThisMonth: "month",
}

// TimeWindows lists every window in menu order.
func TimeWindows() []TimeWindow {
	return []TimeWindow{TimeWindowToday, TimeWindowThisWeek, TimeWindowThisMonth}
}

// String returns the human-readable label.
func (w TimeWindow) String() string {
	if label, ok := timeWindowLabels[w]; ok {
		return label
	}
	return timeWindowLabels[DefaultTimeWindow]
}

// Token returns the filter value passed to the build API.
func (w TimeWindow) Token() string {
	if token, ok := timeWindowTokens[w]; ok {
		return token
	}
	return timeWindowTokens[DefaultTimeWindow]
}

// Next returns the following window, wrapping around after the last one.
func (w TimeWindow) Next() TimeWindow {
	windows := TimeWindows()
	for i, candidate := range windows {
		if candidate == w {
			return windows[(i+1)%len(windows)]
		}
	}
	return DefaultTimeWindow
}

// ParseTimeWindow resolves a label to its window. Unknown labels resolve to
// DefaultTimeWindow.
func ParseTimeWindow(label string) TimeWindow {
	for w, l := range timeWindowLabels {
		if l == label {
			return w
		}
	}
	return DefaultTimeWindow
}
