package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/anthropics/jin/internal/jctx"
	"github.com/anthropics/jin/internal/layer"
	"github.com/anthropics/jin/internal/objstore"
)

func init() {
	register(func(root *cobra.Command) { root.AddCommand(newBrowseCmd()) })
}

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Interactively fuzzy-search committed layers and activate one",
		Long: `Open a TUI listing every layer coordinate with a committed history,
fuzzy-filterable by mode, scope, or project name. Selecting one
activates its mode/scope/project components, same as running the
matching "mode use" / "scope use" / "project use" commands.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			applyNoColor(cmd)
			w, err := openReading()
			if err != nil {
				return err
			}
			items, err := loadLayerItems(w.Store())
			w.Close()
			if err != nil {
				return err
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no committed layers yet")
				return nil
			}

			p := tea.NewProgram(initialBrowseModel(items), tea.WithAltScreen())
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("browse: %w", err)
			}
			m := final.(browseModel)
			if m.picked == nil {
				return nil
			}

			w, err = openMutating(false)
			if err != nil {
				return err
			}
			defer w.Close()
			ctx, err := activateLayerItem(w.StateDir(), *m.picked)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "active context: mode=%s scope=%s project=%s\n", orNone(ctx.Mode), orNone(ctx.Scope), orNone(ctx.Project))
			return nil
		},
	}
}

// layerItem is one fuzzy-searchable row: a committed layer coordinate
// plus the head commit it currently resolves to.
type layerItem struct {
	Layer   layer.Layer
	RefPath string
	Head    string
}

func (it layerItem) String() string {
	return fmt.Sprintf("%s mode=%s scope=%s project=%s", it.Layer.Kind, it.Layer.Mode, it.Layer.Scope, it.Layer.Project)
}

func loadLayerItems(s *objstore.Store) ([]layerItem, error) {
	refs, err := s.ListRefs("refs/jin/layers/")
	if err != nil {
		return nil, err
	}
	items := make([]layerItem, 0, len(refs))
	for _, ref := range refs {
		l, err := layer.ParseLayerSpec(ref.Path)
		if err != nil {
			continue
		}
		items = append(items, layerItem{Layer: l, RefPath: ref.Path, Head: ref.Hash})
	}
	sort.Slice(items, func(i, j int) bool {
		return layer.Precedence(items[i].Layer.Kind) < layer.Precedence(items[j].Layer.Kind)
	})
	return items, nil
}

// activateLayerItem activates every context component the picked
// layer names, leaving components it doesn't mention untouched.
func activateLayerItem(stateDir string, it layerItem) (layer.Context, error) {
	ctx, err := jctx.Load(stateDir)
	if err != nil {
		return layer.Context{}, err
	}
	if it.Layer.Mode != "" {
		if ctx, err = jctx.Activate(stateDir, "mode", it.Layer.Mode); err != nil {
			return layer.Context{}, err
		}
	}
	if it.Layer.Scope != "" {
		if ctx, err = jctx.Activate(stateDir, "scope", it.Layer.Scope); err != nil {
			return layer.Context{}, err
		}
	}
	if it.Layer.Project != "" {
		if ctx, err = jctx.Activate(stateDir, "project", it.Layer.Project); err != nil {
			return layer.Context{}, err
		}
	}
	return ctx, nil
}

var (
	browseTitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	browseKindStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	browseDetailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	browseSelStyle    = lipgloss.NewStyle().Background(lipgloss.Color("236")).Foreground(lipgloss.Color("255"))
	browseHelpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

type browseModel struct {
	textInput textinput.Model
	items     []layerItem
	filtered  []layerItem
	cursor    int
	picked    *layerItem
}

func initialBrowseModel(items []layerItem) browseModel {
	ti := textinput.New()
	ti.Placeholder = "Filter layers..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 50
	return browseModel{textInput: ti, items: items, filtered: items}
}

func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		case "enter":
			if len(m.filtered) > 0 {
				m.picked = &m.filtered[m.cursor]
			}
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	m.filterItems()
	return m, cmd
}

func (m *browseModel) filterItems() {
	query := m.textInput.Value()
	if query == "" {
		m.filtered = m.items
		m.cursor = min(m.cursor, max0(len(m.filtered)-1))
		return
	}
	strs := make([]string, len(m.items))
	for i, it := range m.items {
		strs[i] = it.String()
	}
	matches := fuzzy.Find(query, strs)
	m.filtered = make([]layerItem, len(matches))
	for i, match := range matches {
		m.filtered[i] = m.items[match.Index]
	}
	m.cursor = min(m.cursor, max0(len(m.filtered)-1))
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func (m browseModel) View() string {
	var b strings.Builder
	b.WriteString(browseTitleStyle.Render("jin browse"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(browseHelpStyle.Render("  no matching layers\n"))
	}
	for i, it := range m.filtered {
		line := fmt.Sprintf("%s  %s", browseKindStyle.Render(fmt.Sprintf("%-16s", it.Layer.Kind)), browseDetailStyle.Render(it.String()))
		if i == m.cursor {
			line = browseSelStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(browseHelpStyle.Render("↑↓ navigate  enter activate  esc quit"))
	return b.String()
}
