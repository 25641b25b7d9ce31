// Package diagnostics renders the Event Graph's operational signals
// (spec.md §6.2: sync_status, peer_count, dag_synced) for operator-
// facing CLI output. The lipgloss adaptive-color style block is lifted
// from the teacher's cmd/bd-examples CLI; this package adds the same
// styling to a different status surface.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/darkfi-go/eventgraph/internal/idgen"
	"github.com/darkfi-go/eventgraph/internal/types"
)

var (
	okStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	})
	boldStyle = lipgloss.NewStyle().Bold(true)
)

// Snapshot is a point-in-time render of the graph's operational state.
type Snapshot struct {
	SyncStatus string
	PeerCount  int
	DAGSynced  bool
	Tips       []types.ID
	Genesis    types.ID
}

// Render formats a Snapshot as a short, colored operator report —
// the text `evgraphd status` prints.
func Render(s Snapshot) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render("sync_status:"), statusStyle(s.SyncStatus).Render(s.SyncStatus))
	fmt.Fprintf(&b, "%s %d\n", boldStyle.Render("peer_count:"), s.PeerCount)

	synced := "false"
	style := failStyle
	if s.DAGSynced {
		synced = "true"
		style = okStyle
	}
	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render("dag_synced:"), style.Render(synced))

	fmt.Fprintf(&b, "%s %s\n", boldStyle.Render("genesis:"), mutedStyle.Render(idgen.ShortEvent(s.Genesis)))

	fmt.Fprintf(&b, "%s %d\n", boldStyle.Render("tips:"), len(s.Tips))
	for _, t := range s.Tips {
		fmt.Fprintf(&b, "  %s\n", mutedStyle.Render(idgen.ShortEvent(t)))
	}

	return b.String()
}

func statusStyle(status string) lipgloss.Style {
	switch status {
	case "idle":
		return okStyle
	case "syncing", "backfilling":
		return warnStyle
	case "failed":
		return failStyle
	default:
		return mutedStyle
	}
}
