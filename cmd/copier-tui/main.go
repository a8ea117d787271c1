package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/poruru210/sankey-copier-sub002/pkg/config"
	"github.com/poruru210/sankey-copier-sub002/pkg/dashboard"
	"github.com/poruru210/sankey-copier-sub002/pkg/graph"
	"github.com/poruru210/sankey-copier-sub002/pkg/layout"
	"github.com/poruru210/sankey-copier-sub002/pkg/linkstore"
	"github.com/poruru210/sankey-copier-sub002/pkg/pubsub"
	"github.com/poruru210/sankey-copier-sub002/pkg/registry"
	"github.com/poruru210/sankey-copier-sub002/pkg/relay"
	"github.com/poruru210/sankey-copier-sub002/pkg/viewmodel"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			MarginLeft(2).
			MarginTop(1)

	columnHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("#FFFFFF")).
				Padding(0, 1)

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			MarginBottom(1)

	activeCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#00FF00"))

	warningCardStyle = cardStyle.
				BorderForeground(lipgloss.Color("#FFFF00"))

	errorCardStyle = cardStyle.
			BorderForeground(lipgloss.Color("#FF0000"))

	highlightedCardStyle = cardStyle.
				BorderStyle(lipgloss.DoubleBorder()).
				BorderForeground(lipgloss.Color("#FF00FF"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(2)

	filterStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF"))
)

type keyMap struct {
	Up     key.Binding
	Down   key.Binding
	Toggle key.Binding
	Expand key.Binding
	Filter key.Binding
	Clear  key.Binding
	Quit   key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "previous link"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "next link"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "toggle link"),
	),
	Expand: key.NewBinding(
		key.WithKeys("e"),
		key.WithHelp("e", "expand master card"),
	),
	Filter: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "filter to master"),
	),
	Clear: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear filter"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Toggle, k.Expand, k.Filter, k.Clear, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type frameMsg dashboard.Frame

type model struct {
	engine *dashboard.Engine
	store  *linkstore.Store

	frame  dashboard.Frame
	links  table.Model
	help   help.Model
	status string
}

func newModel(engine *dashboard.Engine, store *linkstore.Store) model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "ID", Width: 6},
			{Title: "Master", Width: 16},
			{Title: "Slave", Width: 16},
			{Title: "State", Width: 10},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return model{engine: engine, store: store, links: t, help: help.New()}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		m.frame = dashboard.Frame(msg)
		m.links.SetRows(linkRows(m.frame))
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, keys.Toggle):
			if id, ok := m.selectedLinkID(); ok {
				if err := m.store.Toggle(id); err != nil {
					m.status = fmt.Sprintf("toggle failed: %v", err)
				} else {
					m.status = fmt.Sprintf("toggled link %d", id)
				}
			}
			return m, nil

		case key.Matches(msg, keys.Expand):
			if master, ok := m.selectedMaster(); ok {
				m.engine.ToggleExpanded(master)
			}
			return m, nil

		case key.Matches(msg, keys.Filter):
			if master, ok := m.selectedMaster(); ok {
				m.engine.SetFilter(master)
				m.status = "filtered to " + master
			}
			return m, nil

		case key.Matches(msg, keys.Clear):
			m.engine.SetFilter("")
			m.status = ""
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.links, cmd = m.links.Update(msg)
	return m, cmd
}

func (m model) selectedLinkID() (int64, bool) {
	row := m.links.SelectedRow()
	if row == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	return id, err == nil
}

func (m model) selectedMaster() (string, bool) {
	row := m.links.SelectedRow()
	if row == nil {
		return "", false
	}
	return row[1], true
}

func linkRows(f dashboard.Frame) []table.Row {
	rows := make([]table.Row, 0, len(f.Graph.Edges))
	for _, e := range f.Graph.Edges {
		state := "disabled"
		if e.Link.Enabled {
			state = "enabled"
		}
		rows = append(rows, table.Row{
			strconv.FormatInt(e.Link.ID, 10),
			e.Link.MasterAccount,
			e.Link.SlaveAccount,
			state,
		})
	}
	return rows
}

func (m model) View() string {
	if m.frame.Graph == nil {
		return titleStyle.Render("Copier Dashboard") + "\n\n" +
			statusStyle.Render("waiting for first frame...")
	}

	var b strings.Builder

	title := "Copier Dashboard"
	if f := m.engine.Filter(); f != "" {
		title += "  " + filterStyle.Render("[filter: "+f+"]")
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderColumn("Sources", graph.KindSource),
		"    ",
		m.renderColumn("Receivers", graph.KindReceiver),
	))
	b.WriteString("\n")

	b.WriteString(m.links.View())
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(statusStyle.Render(m.help.View(keys)))
	return b.String()
}

func (m model) renderColumn(header, kind string) string {
	cards := []string{columnHeaderStyle.Render(header)}

	nodes := make([]*graph.Node, 0)
	for _, n := range m.frame.Graph.Nodes {
		if n.Kind == kind {
			nodes = append(nodes, n)
		}
	}
	// Stack in layout order.
	sort.Slice(nodes, func(i, j int) bool {
		return m.frame.Positions[nodes[i].ID].Y < m.frame.Positions[nodes[j].ID].Y
	})

	for _, n := range nodes {
		cards = append(cards, m.renderCard(n))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards...)
}

func (m model) renderCard(n *graph.Node) string {
	a := n.Account
	body := a.AccountID + " " + stateBadge(a)
	if a.Expanded {
		body += fmt.Sprintf("\n%s %s\nbalance %.2f\nequity  %.2f",
			a.Broker, a.Platform, a.Balance, a.Equity)
		if a.StatusMessage != "" {
			body += "\n" + a.StatusMessage
		}
	}

	style := cardStyle
	switch {
	case m.frame.Highlighted[n.ID]:
		style = highlightedCardStyle
	case a.Error:
		style = errorCardStyle
	case a.Warning:
		style = warningCardStyle
	case a.Active:
		style = activeCardStyle
	}
	return style.Render(body)
}

func stateBadge(a *viewmodel.Account) string {
	switch {
	case a.Error:
		return "[ERR]"
	case a.Warning:
		return "[WARN]"
	case a.Active:
		return "[ON]"
	default:
		return "[OFF]"
	}
}

func main() {
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The terminal owns stdout; keep the log stream out of the way.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	client := relay.NewClient(cfg.Relay.BaseURL, cfg.RelayTimeout(), logger)
	bus := pubsub.NewBus()
	defer bus.Shutdown()

	store := linkstore.New(client, bus, logger, linkstore.Options{
		DebounceWindow: cfg.DebounceWindow(),
	})
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Refetch(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch settings: %v\n", err)
		os.Exit(1)
	}

	push := relay.NewPushStream(cfg.Relay.PushURL, store.ApplyEvent, logger)
	// The TUI stays usable on polling alone.
	push.Connect()

	reg := registry.New(client, bus, logger, registry.Options{
		PollInterval: cfg.PollInterval(),
	})

	var program *tea.Program
	engine := dashboard.New(store, reg, bus, logger, dashboard.Options{
		TouchCapable:  cfg.Dashboard.TouchCapable,
		RelayoutDelay: cfg.RelayoutDelay(),
		Layout:        layout.Config{Width: cfg.Dashboard.CanvasWidth},
		Push:          push,
		OnRender: func(f dashboard.Frame) {
			if program != nil {
				program.Send(frameMsg(f))
			}
		},
	})
	defer engine.Close()

	go engine.Run(ctx)

	program = tea.NewProgram(newModel(engine, store), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}
