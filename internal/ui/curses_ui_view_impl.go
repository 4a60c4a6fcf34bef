package ui

import (
	"fmt"
	"log"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lowaak/interval-split/internal/engine"
	"github.com/lowaak/interval-split/internal/interval"
)

// Page names for tview.Pages
const (
	pageTimer   = "timer"
	pagePlan    = "plan"
	pageHistory = "history"
)

// CursesUIViewImpl implements UIViewImpl using tview (curses-based terminal UI)
type CursesUIViewImpl struct {
	logger      *log.Logger
	app         *tview.Application
	currentMode UIMode

	// Root container that holds all pages
	pages *tview.Pages

	// Shared components (visible in all modes)
	logView  *tview.TextView
	mainFlex *tview.Flex // Main layout: mode content on top, logs below

	// Timer mode components
	timerFlex       *tview.Flex
	timerTabWidgets []*tview.Box
	timerPanel      *tview.TextView
	treadmillPanel  *tview.TextView
	keyHintText     *tview.TextView

	// Plan mode components
	planPanel *tview.TextView

	// History mode components
	historyPanel *tview.TextView
}

func NewCursesUIView(logger *log.Logger, app *tview.Application) *CursesUIViewImpl {
	if logger == nil {
		panic("CursesUIView: logger cannot be nil")
	}
	if app == nil {
		panic("CursesUIView: app cannot be nil")
	}
	return &CursesUIViewImpl{
		logger:      logger,
		app:         app,
		currentMode: UIModeTimer,
	}
}

// Initialize sets up the tview widgets
func (ui *CursesUIViewImpl) Initialize(controller *UIController) {
	// No SetChangedFunc with app.Draw here: BaseUIView draws after every
	// update and a draw from a stopped app hangs.
	ui.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	ui.logView.SetBorder(true).SetTitle(" Logs ")

	ui.pages = tview.NewPages()

	ui.initTimerMode()
	ui.planPanel = ui.newScrollPanel(" Plan ")
	ui.historyPanel = ui.newScrollPanel(" History ")

	ui.pages.AddPage(pageTimer, ui.timerFlex, true, true)
	ui.pages.AddPage(pagePlan, ui.planPanel, true, false)
	ui.pages.AddPage(pageHistory, ui.historyPanel, true, false)

	ui.mainFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.modeBar(), 1, 0, false).
		AddItem(ui.pages, 0, 3, true).
		AddItem(ui.logView, 0, 1, false)

	ui.setFocusForCurrentMode()
}

func (ui *CursesUIViewImpl) initTimerMode() {
	ui.timerPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.timerPanel.SetBorder(true).SetTitle(" Timer ")

	ui.treadmillPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	ui.keyHintText = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	ui.keyHintText.SetText(hintMarkup(KeyHint(engine.StatusIdle)))

	ui.timerTabWidgets = append(ui.timerTabWidgets, ui.timerPanel.Box)

	ui.timerFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(ui.timerPanel, 0, 1, true).
		AddItem(ui.treadmillPanel, 1, 0, false).
		AddItem(ui.keyHintText, 1, 0, false)
}

func (ui *CursesUIViewImpl) newScrollPanel(title string) *tview.TextView {
	panel := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	panel.SetBorder(true).SetTitle(title)
	return panel
}

func (ui *CursesUIViewImpl) modeBar() *tview.TextView {
	parts := make([]string, 0, len(AllUIModes)+1)
	for _, info := range AllUIModes {
		parts = append(parts, fmt.Sprintf("[yellow]%c[white] %s", info.KeyBinding, info.DisplayName))
	}
	parts = append(parts, "[yellow]Esc[white] Quit")
	bar := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	bar.SetText(strings.Join(parts, "  |  "))
	return bar
}

// hintMarkup highlights the key names of a KeyHint line
func hintMarkup(hint string) string {
	items := strings.Split(hint, "  |  ")
	for i, item := range items {
		key, rest, found := strings.Cut(item, " ")
		if found {
			items[i] = fmt.Sprintf("[yellow]%s[white] %s", key, rest)
		}
	}
	return strings.Join(items, "  |  ")
}

// tagColor is the tview color of a block tag
func tagColor(tag interval.BlockTag) string {
	switch tag {
	case interval.TagWarmup, interval.TagCooldown:
		return "blue"
	case interval.TagFast:
		return "red"
	case interval.TagSlow:
		return "green"
	default:
		return "white"
	}
}

// UpdateTimer renders the timer screen
func (ui *CursesUIViewImpl) UpdateTimer(d TimerDisplay) {
	var b strings.Builder
	b.WriteString("\n")
	fmt.Fprintf(&b, "[%s]%s[white]\n\n", tagColor(d.Tag), tview.Escape(d.TagLabel))
	fmt.Fprintf(&b, "[yellow]%s[white]\n\n", d.Remaining)
	if d.RoundLine != "" {
		fmt.Fprintf(&b, "%s\n", tview.Escape(d.RoundLine))
	}
	if d.SpeedLine != "" {
		fmt.Fprintf(&b, "%s\n", d.SpeedLine)
	}
	fmt.Fprintf(&b, "[gray]%s[white]\n\n", d.RoundCounter)
	fmt.Fprintf(&b, "%s\n", ProgressBar(d.Fraction, progressBarWidth))
	fmt.Fprintf(&b, "%s / %s  [gray]%s[white]\n", d.Elapsed, d.Total, d.StatusLabel)

	ui.timerPanel.SetText(b.String())
	ui.keyHintText.SetText(hintMarkup(KeyHint(d.Status)))
}

func (ui *CursesUIViewImpl) UpdateTreadmill(line string) {
	ui.treadmillPanel.SetText(fmt.Sprintf("[gray]%s[white]", tview.Escape(line)))
}

func (ui *CursesUIViewImpl) SetPlanLines(lines []string) {
	ui.planPanel.SetText(escapeLines(lines))
	ui.planPanel.ScrollToBeginning()
}

func (ui *CursesUIViewImpl) SetHistoryLines(lines []string) {
	ui.historyPanel.SetText(escapeLines(lines))
	ui.historyPanel.ScrollToBeginning()
}

func escapeLines(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(" ")
		b.WriteString(tview.Escape(line))
		b.WriteString("\n")
	}
	return b.String()
}

// SetMode switches the UI to the specified mode
func (ui *CursesUIViewImpl) SetMode(mode UIMode) {
	if ui.currentMode == mode {
		return
	}

	ui.currentMode = mode

	switch mode {
	case UIModeTimer:
		ui.pages.SwitchToPage(pageTimer)
	case UIModePlan:
		ui.pages.SwitchToPage(pagePlan)
	case UIModeHistory:
		ui.pages.SwitchToPage(pageHistory)
	}

	ui.setFocusForCurrentMode()
}

// GetCurrentMode returns the currently active UI mode
func (ui *CursesUIViewImpl) GetCurrentMode() UIMode {
	return ui.currentMode
}

func (ui *CursesUIViewImpl) getTabWidgetsForCurrentMode() []*tview.Box {
	switch ui.currentMode {
	case UIModeTimer:
		return ui.timerTabWidgets
	case UIModePlan:
		return []*tview.Box{ui.planPanel.Box, ui.logView.Box}
	case UIModeHistory:
		return []*tview.Box{ui.historyPanel.Box, ui.logView.Box}
	default:
		return nil
	}
}

func (ui *CursesUIViewImpl) setFocusForCurrentMode() {
	if widgets := ui.getTabWidgetsForCurrentMode(); len(widgets) > 0 {
		ui.app.SetFocus(widgets[0])
	}
}

// SetupKeyboardHandlers sets up keyboard event handlers
func (ui *CursesUIViewImpl) SetupKeyboardHandlers(controller *UIController) {
	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyRune {
			if mode, ok := GetUIModeByKey(event.Rune()); ok {
				// the controller updates the model, which notifies us
				controller.OnModeChange(mode)
				return nil
			}
		}

		if event.Key() == tcell.KeyTab {
			widgets := ui.getTabWidgetsForCurrentMode()
			for i, w := range widgets {
				if w.HasFocus() {
					ui.app.SetFocus(widgets[(i+1)%len(widgets)])
					break
				}
			}
			return nil
		}

		if event.Key() == tcell.KeyEscape {
			controller.OnEscapeKey()
			return nil
		}

		if ui.currentMode == UIModeTimer && event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case ' ':
				controller.ToggleTimer()
				return nil
			case 'r', 'R':
				controller.ResetTimer()
				return nil
			}
		}

		return event
	})
}

// GetLogViewHeight returns the visible height of the log view
func (ui *CursesUIViewImpl) GetLogViewHeight() int {
	_, _, _, height := ui.logView.GetInnerRect()
	return height
}

func (ui *CursesUIViewImpl) ClearLogView() {
	ui.logView.Clear()
}

func (ui *CursesUIViewImpl) WriteLogLine(line string) error {
	_, err := fmt.Fprint(ui.logView, tview.Escape(line))
	return err
}

// Draw refreshes/redraws the UI
func (ui *CursesUIViewImpl) Draw() error {
	ui.app.Draw()
	return nil
}

// Run starts the UI and blocks until it exits
func (ui *CursesUIViewImpl) Run() error {
	// SetRoot must come before focus, otherwise focus is reset
	ui.app.SetRoot(ui.mainFlex, true)
	ui.setFocusForCurrentMode()
	return ui.app.Run()
}

func (ui *CursesUIViewImpl) Stop() {
	ui.app.Stop()
}
