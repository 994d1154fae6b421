// Package wizard implements the interactive init flow that reviews the
// detected configuration before .covrun.yaml is written.
package wizard

import (
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"covrun/internal/application"
)

type (
	wizardState int

	initWizardModel struct {
		state     wizardState
		cfg       application.Config
		cursor    int
		confirmed bool
		aborted   bool
	}
)

const (
	stateIntro wizardState = iota
	stateEdit
	stateConfirm
)

// rows in the edit view
const (
	rowMode = iota
	rowOpen
	rowCount
)

var modes = []string{"set", "count", "atomic"}

// Run walks the user through the detected config and returns the result plus
// whether they confirmed the write.
func Run(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	return runInitWizard(cfg, stdout, stdin)
}

func runInitWizard(cfg application.Config, stdout io.Writer, stdin io.Reader) (application.Config, bool, error) {
	model := newInitWizardModel(cfg)
	program := tea.NewProgram(model, tea.WithInput(stdin), tea.WithOutput(stdout))
	res, err := program.Run()
	if err != nil {
		return cfg, false, err
	}
	final, ok := res.(*initWizardModel)
	if !ok {
		return cfg, false, fmt.Errorf("unexpected wizard state")
	}
	if final.aborted || !final.confirmed {
		return cfg, false, nil
	}
	return final.cfg, true, nil
}

func newInitWizardModel(cfg application.Config) *initWizardModel {
	if cfg.Mode == "" {
		cfg.Mode = application.DefaultConfig().Mode
	}
	if len(cfg.Packages) == 0 {
		cfg.Packages = application.DefaultConfig().Packages
	}
	return &initWizardModel{state: stateIntro, cfg: cfg}
}

func (m *initWizardModel) Init() tea.Cmd {
	return nil
}

func (m *initWizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			switch m.state {
			case stateIntro:
				m.state = stateEdit
			case stateEdit:
				m.state = stateConfirm
			case stateConfirm:
				m.confirmed = true
				return m, tea.Quit
			}
		case "esc":
			if m.state == stateConfirm {
				m.state = stateEdit
			}
		case "up":
			if m.state == stateEdit && m.cursor > 0 {
				m.cursor--
			}
		case "down":
			if m.state == stateEdit && m.cursor < rowCount-1 {
				m.cursor++
			}
		case "left", "right", " ":
			if m.state == stateEdit {
				m.toggleSelection(msg.String() != "left")
			}
		}
	}
	return m, nil
}

func (m *initWizardModel) toggleSelection(forward bool) {
	switch m.cursor {
	case rowMode:
		m.cfg.Mode = cycleMode(m.cfg.Mode, forward)
	case rowOpen:
		m.cfg.Open = !m.cfg.Open
	}
}

func cycleMode(current string, forward bool) string {
	idx := 0
	for i, mode := range modes {
		if mode == current {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(modes)
	} else {
		idx = (idx + len(modes) - 1) % len(modes)
	}
	return modes[idx]
}

func (m *initWizardModel) View() string {
	switch m.state {
	case stateIntro:
		return m.viewIntro()
	case stateEdit:
		return m.viewEdit()
	case stateConfirm:
		return m.viewConfirm()
	default:
		return ""
	}
}

func (m *initWizardModel) viewIntro() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\ncovrun init wizard\n\n")
	fmt.Fprintf(&b, "Instrumenting %s, HTML report under %s.\n\n", strings.Join(m.cfg.Packages, ", "), m.cfg.ReportDir)
	fmt.Fprintf(&b, "Press Enter to review the settings, or Ctrl+C to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewEdit() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReview settings\n\n")
	fmt.Fprintf(&b, "Use ↑/↓ to move, ←/→ or space to change values.\n\n")

	rows := []string{
		fmt.Sprintf("coverage mode: %s", m.cfg.Mode),
		fmt.Sprintf("open report after run: %s", yesNo(m.cfg.Open)),
	}
	for i, row := range rows {
		indicator := "  "
		if m.cursor == i {
			indicator = "> "
		}
		fmt.Fprintf(&b, "%s%s\n", indicator, row)
	}
	fmt.Fprintf(&b, "\nEnter to continue, q to cancel.\n")
	return b.String()
}

func (m *initWizardModel) viewConfirm() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\nReady to write configuration\n\n")
	fmt.Fprintf(&b, "Packages: %s\n", strings.Join(m.cfg.Packages, ", "))
	fmt.Fprintf(&b, "Coverage mode: %s\n", m.cfg.Mode)
	fmt.Fprintf(&b, "Report directory: %s\n", m.cfg.ReportDir)
	fmt.Fprintf(&b, "Profile: %s\n", m.cfg.Profile)
	fmt.Fprintf(&b, "Open report after run: %s\n", yesNo(m.cfg.Open))
	fmt.Fprintf(&b, "\nPress Enter to save, Esc to go back, q to cancel.\n")
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
