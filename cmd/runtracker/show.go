package main

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tools.zach/dev/runtracker/internal/export"
	"tools.zach/dev/runtracker/internal/session"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	averageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// sessionDateLayout formats session ids for display.
const sessionDateLayout = "2006-01-02 15:04"

// errNoSessions is returned when there is nothing to show.
var errNoSessions = errors.New("no sessions recorded")

// ///////////////////////////////////////////////
// show Command
// ///////////////////////////////////////////////

func newShowCmd(a *app) *cobra.Command {
	var (
		format     string
		prev, next bool
	)
	cmd := &cobra.Command{
		Use:   "show [session-id]",
		Short: "Show a session summary",
		Long: `Show the summary of the current session, or of a historical session by id.
--prev and --next step to the neighboring historical session.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if prev && next {
				return fmt.Errorf("--prev and --next are mutually exclusive")
			}
			st := session.NewStore(a.paths(), 0)

			var id int64
			var explicit bool
			if len(args) == 1 {
				parsed, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid session id %q: %w", args[0], err)
				}
				id, explicit = parsed, true
			}

			s, err := resolveSession(st, id, explicit, stepOf(prev, next))
			if err != nil {
				return err
			}

			sum := session.Summarize(s, s.EndTime)
			if format == "text" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), renderSummary(sum, s.EndTime))
				return err
			}
			exp, err := export.NewExporter(format)
			if err != nil {
				return err
			}
			return exp.Export(sum, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json, yaml")
	cmd.Flags().BoolVar(&prev, "prev", false, "Show the session before the given one")
	cmd.Flags().BoolVar(&next, "next", false, "Show the session after the given one")
	return cmd
}

func stepOf(prev, next bool) int {
	switch {
	case prev:
		return -1
	case next:
		return 1
	default:
		return 0
	}
}

// resolveSession picks the session to show. Without an explicit id it starts
// from the current session, or the latest historical one when there is no
// current file. A non-zero step then moves through the historical list.
func resolveSession(st *session.Store, id int64, explicit bool, step int) (*session.Session, error) {
	if !explicit {
		cur, err := st.LoadCurrent()
		switch {
		case err == nil:
			id = cur.ID()
			if step == 0 {
				return cur, nil
			}
		case errors.Is(err, fs.ErrNotExist):
			ids, listErr := st.ListHistorical()
			if listErr != nil {
				return nil, listErr
			}
			if len(ids) == 0 {
				return nil, errNoSessions
			}
			id = ids[len(ids)-1]
		default:
			return nil, err
		}
	}

	if step != 0 {
		neighbor, ok, err := st.Neighbor(id, step)
		if err != nil {
			return nil, err
		}
		if !ok {
			dir := "previous"
			if step > 0 {
				dir = "next"
			}
			return nil, fmt.Errorf("no %s session", dir)
		}
		id = neighbor
	}
	return st.LoadHistorical(id)
}

// ///////////////////////////////////////////////
// Rendering
// ///////////////////////////////////////////////

// renderSummary formats sum as styled text. Rows are grouped with a blank line
// between groups.
func renderSummary(sum session.Summary, end int64) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("Session " + time.UnixMilli(sum.ID).Format(sessionDateLayout)))
	b.WriteString("\n")
	b.WriteString(metaStyle.Render(fmt.Sprintf("id %d, last saved %s", sum.ID, time.UnixMilli(end).Format(sessionDateLayout))))
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Time played:"))
	b.WriteString(" ")
	b.WriteString(countStyle.Render(session.FormatMillis(sum.Played)))
	b.WriteString(" ")
	b.WriteString(metaStyle.Render("(session length " + session.FormatMillis(sum.Length) + ")"))
	b.WriteString("\n")
	line(&b, "Breaks", strconv.Itoa(sum.Breaks), sum.AverageBreak)
	line(&b, "Resets", strconv.FormatInt(sum.Resets, 10), 0)

	group := -1
	for _, r := range sum.Rows {
		if r.Group != group {
			b.WriteString("\n")
			group = r.Group
		}
		line(&b, r.Label, strconv.FormatInt(r.Count, 10), r.Average)
	}
	return b.String()
}

func line(b *strings.Builder, label, value string, avg int64) {
	b.WriteString(labelStyle.Render(label + ":"))
	b.WriteString(" ")
	b.WriteString(countStyle.Render(value))
	if avg > 0 {
		b.WriteString(" ")
		b.WriteString(averageStyle.Render("(avg " + session.FormatMillis(avg) + ")"))
	}
	b.WriteString("\n")
}
