package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"moduledeps/internal/core/ports"
	"moduledeps/internal/engine/rules"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// browserUpdate carries a fresh analysis into a running browser.
type browserUpdate struct {
	result ports.AnalyzeResult
	err    error
}

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	findings    list.Model
	reports     []rules.Report
	counts      [rules.KindCount]int
	total       int
	modules     int
	classes     int
	showActions bool
	// kind narrows the list to one severity; -1 shows all.
	kind       rules.Kind
	lastUpdate time.Time
	lastErr    string
}

type updateMsg browserUpdate

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.findings.FilterState() != list.Filtering {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "tab":
				m.kind = nextKind(m.kind)
				m.findings.SetItems(m.items())
				return m, nil
			case "a":
				m.showActions = !m.showActions
				m.findings.SetItems(m.items())
				return m, nil
			}
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 6
		if height < 5 {
			height = 5
		}
		m.findings.SetSize(msg.Width-h, height)
	case updateMsg:
		m.lastUpdate = time.Now()
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		m.setResult(msg.result)
		return m, nil
	}

	var cmd tea.Cmd
	m.findings, cmd = m.findings.Update(msg)
	return m, cmd
}

func (m *model) setResult(res ports.AnalyzeResult) {
	m.reports = res.Reports
	m.counts = rules.Count(res.Reports)
	m.total = res.Total
	m.modules = res.Modules
	m.classes = res.Classes
	m.findings.SetItems(m.items())
}

func (m model) items() []list.Item {
	items := make([]list.Item, 0, len(m.reports))
	for _, r := range m.reports {
		if m.kind >= 0 && r.Kind != m.kind {
			continue
		}
		desc := r.Message
		if m.showActions && r.HasAction() {
			desc = r.Action
		}
		items = append(items, item{
			title: fmt.Sprintf("%s [%s] %s", r.Kind, r.ForTeam, r.ForClass),
			desc:  desc,
		})
	}
	return items
}

// nextKind cycles all, Critical, ..., ToDo, all.
func nextKind(k rules.Kind) rules.Kind {
	if k+1 >= rules.KindCount {
		return -1
	}
	return k + 1
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %s | %d modules | %d classes | %d of %d findings",
		m.lastUpdate.Format("15:04:05"), m.modules, m.classes, len(m.reports), m.total))

	var summary string
	if len(m.reports) == 0 {
		summary = successStyle.Render("No findings")
	} else {
		parts := make([]string, 0, rules.KindCount)
		for _, k := range rules.AllKinds() {
			if m.counts[k] == 0 {
				continue
			}
			text := fmt.Sprintf("%d %s", m.counts[k], k)
			switch k {
			case rules.Critical, rules.Error:
				text = criticalStyle.Render(text)
			case rules.AutoAction, rules.DevAction:
				text = actionStyle.Render(text)
			}
			parts = append(parts, text)
		}
		summary = strings.Join(parts, " | ")
	}

	showing := "all"
	if m.kind >= 0 {
		showing = m.kind.String()
	}
	help := statusStyle.Render(fmt.Sprintf("tab: severity (%s) | a: toggle actions | /: filter | q: quit", showing))

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Module Dependency Findings"), status, summary)
	body := m.findings.View()
	if m.lastErr != "" {
		body += "\n\n" + criticalStyle.Render("Refresh failed: "+m.lastErr)
	}
	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func initialModel(res ports.AnalyzeResult, showActions bool) model {
	findings := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	findings.Title = "Findings"
	findings.SetShowStatusBar(false)
	findings.SetFilteringEnabled(true)

	m := model{
		findings:    findings,
		showActions: showActions,
		kind:        -1,
		lastUpdate:  time.Now(),
	}
	m.setResult(res)
	return m
}

// runBrowser shows res until the user quits. Updates, when given, replace
// the displayed findings as they arrive.
func runBrowser(ctx context.Context, res ports.AnalyzeResult, showActions bool, updates <-chan browserUpdate) error {
	p := tea.NewProgram(initialModel(res, showActions), tea.WithAltScreen(), tea.WithContext(ctx))

	done := make(chan struct{})
	defer close(done)
	if updates != nil {
		go func() {
			for {
				select {
				case u := <-updates:
					p.Send(updateMsg(u))
				case <-ctx.Done():
					return
				case <-done:
					return
				}
			}
		}()
	}

	_, err := p.Run()
	if ctx.Err() != nil {
		return nil
	}
	return err
}
