package ui

// UIMode represents the current UI mode/screen
type UIMode int

const (
	UIModeTimer   UIMode = iota // Running the interval timer
	UIModePlan                  // Plan structure overview
	UIModeHistory               // Daily records and totals
)

// UIModeInfo contains display information for a UI mode
type UIModeInfo struct {
	Mode        UIMode
	DisplayName string
	KeyBinding  rune // The number key to activate this mode (1-9)
}

// AllUIModes defines all available UI modes in order
var AllUIModes = []UIModeInfo{
	{Mode: UIModeTimer, DisplayName: "Timer", KeyBinding: '1'},
	{Mode: UIModePlan, DisplayName: "Plan", KeyBinding: '2'},
	{Mode: UIModeHistory, DisplayName: "History", KeyBinding: '3'},
}

// GetUIModeByKey returns the mode for a given key binding
func GetUIModeByKey(key rune) (UIMode, bool) {
	for _, info := range AllUIModes {
		if info.KeyBinding == key {
			return info.Mode, true
		}
	}
	return 0, false
}

// GetUIModeInfo returns the info for a given mode
func GetUIModeInfo(mode UIMode) (UIModeInfo, bool) {
	for _, info := range AllUIModes {
		if info.Mode == mode {
			return info, true
		}
	}
	return UIModeInfo{}, false
}

const (
	maxLogLines = 1000

	// historyDays is how many days the history screen lists
	historyDays = 14

	progressBarWidth = 40
)
