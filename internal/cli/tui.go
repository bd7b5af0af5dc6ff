package cli

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/reefrank/pkg/pipeline"
	"github.com/matzehuels/reefrank/pkg/seeding"
)

var listDimStyle = lipgloss.NewStyle().Foreground(colorDim)

// rankOrder selects how the browser sorts sites.
type rankOrder int

const (
	orderSite rankOrder = iota
	orderSeed
	orderShade
)

func (o rankOrder) String() string {
	switch o {
	case orderSeed:
		return "seed rank"
	case orderShade:
		return "shade rank"
	}
	return "site"
}

// =============================================================================
// RankBrowserModel - Interactive rank browser
// =============================================================================

// RankBrowserModel is the bubbletea model for browsing the ranks of a run,
// one (timestep, replicate) slot at a time.
type RankBrowserModel struct {
	Result    *pipeline.Result
	Timestep  int // index into Result.Timesteps
	Replicate int
	Order     rankOrder
	Offset    int
	Height    int
}

// NewRankBrowserModel creates a browser positioned on the first slot,
// sorted by seeding rank.
func NewRankBrowserModel(res *pipeline.Result) RankBrowserModel {
	return RankBrowserModel{Result: res, Order: orderSeed, Height: 15}
}

// browseRanks runs the rank browser until the user quits.
func browseRanks(res *pipeline.Result) error {
	if len(res.Slots) == 0 {
		printInfo("Run %s has no replicates", res.RunID)
		return nil
	}
	_, err := tea.NewProgram(NewRankBrowserModel(res), tea.WithAltScreen()).Run()
	return err
}

func (m RankBrowserModel) Init() tea.Cmd {
	return nil
}

func (m RankBrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "right", "l":
			if m.Replicate < len(m.Result.Slots[m.Timestep])-1 {
				m.Replicate++
			}
		case "left", "h":
			if m.Replicate > 0 {
				m.Replicate--
			}
		case "tab":
			m.Timestep = (m.Timestep + 1) % len(m.Result.Slots)
			m.Replicate = min(m.Replicate, len(m.Result.Slots[m.Timestep])-1)
			m.Offset = 0
		case "s":
			m.Order = (m.Order + 1) % 3
			m.Offset = 0
		case "up", "k":
			if m.Offset > 0 {
				m.Offset--
			}
		case "down", "j":
			if m.Offset+m.Height < len(m.Result.SiteIDs) {
				m.Offset++
			}
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-8, 5)
	}
	return m, nil
}

func (m RankBrowserModel) View() string {
	var b strings.Builder

	res := m.Result
	b.WriteString(StyleTitle.Render(fmt.Sprintf("%s · timestep %d · replicate %d",
		res.Domain, res.Timesteps[m.Timestep], m.Replicate)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("←/→ replicate  tab timestep  s sort  ↑/↓ scroll  q quit"))
	b.WriteString("\n\n")

	rep := res.Slots[m.Timestep][m.Replicate]
	if rep == nil || rep.Ranks == nil {
		msg := "replicate was not ranked"
		if rep != nil && rep.Error != "" {
			msg = rep.Error
		}
		b.WriteString(StyleWarning.Render("  " + msg))
		b.WriteString("\n")
		return b.String()
	}

	sites := m.order()
	end := min(m.Offset+m.Height, len(sites))
	rows := make([][]string, 0, end-m.Offset)
	for _, s := range sites[m.Offset:end] {
		rk := rep.Ranks.Ranks[s]
		row := []string{res.SiteIDs[s], fmtRank(rk.Seed, rep.Ranks.Sentinel), fmtRank(rk.Shade, rep.Ranks.Sentinel)}
		if rep.Allocation != nil {
			row = append(row, fmtFloat(seededArea(rep.Allocation, s), 2))
		}
		rows = append(rows, row)
	}

	headers := []string{"Site", "Seed", "Shade"}
	if rep.Allocation != nil {
		headers = append(headers, "Seeded area")
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader.Padding(0, 1)
			}
			cell := styleCell
			if row >= len(rows) {
				return cell
			}
			switch col {
			case 1:
				if rows[row][1] != "-" {
					return cell.Inherit(styleSeed)
				}
			case 2:
				if rows[row][2] != "-" {
					return cell.Inherit(styleShade)
				}
			}
			return cell.Foreground(colorGray)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  sorted by %s  [%d-%d/%d]", m.Order, m.Offset+1, end, len(sites))))
	return b.String()
}

// order returns the site indices of the current slot in display order.
// Unranked sites sort after ranked ones.
func (m RankBrowserModel) order() []int {
	rep := m.Result.Slots[m.Timestep][m.Replicate]
	sites := make([]int, len(m.Result.SiteIDs))
	for i := range sites {
		sites[i] = i
	}
	if m.Order == orderSite {
		return sites
	}
	key := func(s int) int {
		if m.Order == orderShade {
			return rep.Ranks.Ranks[s].Shade
		}
		return rep.Ranks.Ranks[s].Seed
	}
	sort.SliceStable(sites, func(a, b int) bool { return key(sites[a]) < key(sites[b]) })
	return sites
}

// seededArea returns the area seeded at site, or zero if site was not
// selected for seeding.
func seededArea(a *seeding.Allocation, site int) float64 {
	for i, s := range a.Sites {
		if s == site {
			return a.SiteArea(i)
		}
	}
	return 0
}
