package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/paradoxlab/reversal/pkg/pipeline"
	"github.com/paradoxlab/reversal/pkg/simpson"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// exploreCommand creates the explore command for interactive tree browsing.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		scenarioPath string
		noCache      bool
	)

	cmd := &cobra.Command{
		Use:   "explore [tree.json]",
		Short: "Browse the layers of a reversal tree interactively",
		Long: `Browse the layers of a reversal tree interactively.

Each layer shows its sub-populations with their treatment and control
recovery rates, plus the aggregate rates for the whole layer. Moving
down a layer splits every sub-population in two and flips the sign of
the aggregate comparison.

The tree comes from a tree.json file (produced by 'generate') or is
built on the fly from a scenario (--scenario) when no file is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := ""
			if len(args) == 1 {
				input = args[0]
			}
			opts, err := loadScenarioOptions(scenarioPath)
			if err != nil {
				return err
			}
			return c.runExplore(cmd.Context(), input, opts, noCache)
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenario", "s", "", "scenario TOML file (ignored when a tree.json is given)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runExplore(ctx context.Context, input string, opts pipeline.Options, noCache bool) error {
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger

	tree, err := c.resolveTree(ctx, runner, input, opts)
	if err != nil {
		return err
	}

	model := NewLayerBrowserModel(tree)
	program := tea.NewProgram(model, tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run explorer: %w", err)
	}
	return nil
}

// =============================================================================
// LayerBrowserModel - Interactive layer browsing
// =============================================================================

// LayerBrowserModel is the bubbletea model for browsing tree layers.
type LayerBrowserModel struct {
	Tree   *simpson.Tree
	Layer  int // 1-based current layer
	Cursor int
	Height int
	Offset int
}

// NewLayerBrowserModel creates a new layer browser starting at the root layer.
func NewLayerBrowserModel(t *simpson.Tree) LayerBrowserModel {
	return LayerBrowserModel{
		Tree:   t,
		Layer:  1,
		Height: 15,
	}
}

func (m LayerBrowserModel) Init() tea.Cmd {
	return nil
}

func (m LayerBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < m.pairCount()-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "left", "h":
			if m.Layer > 1 {
				m.Layer--
				m.Cursor /= 2
				m.Offset = 0
			}
		case "right", "l", "enter":
			if m.Layer < m.Tree.Depth() {
				m.Layer++
				m.Cursor *= 2
				m.Offset = 0
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m LayerBrowserModel) pairCount() int {
	layer, ok := m.Tree.Layer(m.Layer)
	if !ok {
		return 0
	}
	return layer.Len()
}

func (m LayerBrowserModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(fmt.Sprintf("Layer %d of %d", m.Layer, m.Tree.Depth())))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ sub-population  ←/→ layer  q quit"))
	b.WriteString("\n\n")

	treatment, control, ok := m.Tree.Groups(m.Layer)
	if !ok {
		return b.String()
	}
	labels := simpson.Labels(m.Layer)

	end := m.Offset + m.Height
	if end > len(labels) {
		end = len(labels)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		label := labels[i]
		if label == "" {
			label = "population"
		}

		rows = append(rows, []string{
			cursor,
			label,
			fmt.Sprintf("%.4f", treatment[i].Height),
			fmt.Sprintf("%.4f", control[i].Height),
			fmt.Sprintf("%.4f", treatment[i].Width),
			fmt.Sprintf("%.4f", control[i].Width),
		})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Sub-population", "Treated", "Control", "T share", "C share").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if m.Offset+row == m.Cursor {
				return listSelectedStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(m.renderAggregates())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(labels))))

	return b.String()
}

// renderAggregates shows the layer-level rates and which group wins,
// making the sign flip visible when moving between layers.
func (m LayerBrowserModel) renderAggregates() string {
	layer, ok := m.Tree.Layer(m.Layer)
	if !ok {
		return ""
	}

	taller, shorter := layer.Rates()
	treatmentRate, controlRate := taller, shorter
	if m.Layer%2 == 0 {
		treatmentRate, controlRate = shorter, taller
	}

	verdict := "treatment wins"
	style := StyleSuccess
	if treatmentRate < controlRate {
		verdict = "control wins"
		style = StyleWarning
	}

	return fmt.Sprintf("  aggregate: treated %s  control %s  %s",
		StyleNumber.Render(fmt.Sprintf("%.4f", treatmentRate)),
		StyleNumber.Render(fmt.Sprintf("%.4f", controlRate)),
		style.Render(verdict))
}
