package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
)

type styles struct {
	heading lipgloss.Style
	time    lipgloss.Style
	dim     lipgloss.Style
	blocks  map[schedule.BlockType]lipgloss.Style
}

func newStyles() styles {
	color := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return styles{
		heading: lipgloss.NewStyle().Bold(true),
		time:    color("12"),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "8", Dark: "7"}),
		blocks: map[schedule.BlockType]lipgloss.Style{
			schedule.BlockPersonal: color("14"),
			schedule.BlockWork:     color("10").Bold(true),
			schedule.BlockBreak:    color("8"),
			schedule.BlockCall:     color("11"),
			schedule.BlockEvening:  color("13"),
			schedule.BlockMarker:   color("9"),
		},
	}
}

func newScheduleCmd() *cobra.Command {
	var regenerate bool
	cmd := &cobra.Command{
		Use:   "schedule [date]",
		Short: "Print the schedule for a date (today by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			var raw string
			if len(args) == 1 {
				raw = args[0]
			}
			date, err := app.Schedules.ParseDate(raw)
			if err != nil {
				return err
			}

			var s *schedule.DailySchedule
			if regenerate {
				s, err = app.Schedules.Generate(ctx, date)
			} else {
				s, err = app.Schedules.ForDate(ctx, date)
			}
			if err != nil {
				return err
			}
			renderSchedule(cmd.OutOrStdout(), newStyles(), *s)
			return nil
		},
	}
	cmd.Flags().BoolVar(&regenerate, "regenerate", false, "Ignore cached and stored schedules")
	return cmd
}

func newRotationCmd() *cobra.Command {
	var slots int
	cmd := &cobra.Command{
		Use:   "rotation",
		Short: "Show which projects would fill the rotation slots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			app, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer app.Close()

			picks, err := app.Schedules.Rotation(ctx, slots)
			if err != nil {
				return err
			}
			renderRotation(cmd.OutOrStdout(), newStyles(), picks)
			return nil
		},
	}
	cmd.Flags().IntVarP(&slots, "slots", "n", 2, "Number of rotation slots")
	return cmd
}

func renderSchedule(w io.Writer, st styles, s schedule.DailySchedule) {
	title := fmt.Sprintf("%s %s", s.Weekday, s.Date)
	if s.Approved {
		title += " (approved)"
	}
	fmt.Fprintln(w, st.heading.Render(title))
	fmt.Fprintln(w)

	for _, b := range s.TimeBlocks {
		style, ok := st.blocks[b.Type]
		if !ok {
			style = lipgloss.NewStyle()
		}
		span := fmt.Sprintf("%8s - %-8s", b.Start, b.End)
		if b.Type == schedule.BlockMarker {
			span = strings.Repeat(" ", len(span))
		}
		fmt.Fprintf(w, "%s  %s\n", st.time.Render(span), style.Render(b.Title))
		if b.Detail != "" {
			fmt.Fprintf(w, "%s  %s\n", strings.Repeat(" ", len(span)), st.dim.Render(b.Detail))
		}
	}

	if len(s.SignalTasks) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.heading.Render("Signal"))
		for i, t := range s.SignalTasks {
			fmt.Fprintf(w, "  %d. %s\n", i+1, t)
		}
	}
	if s.Notes != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, st.dim.Render(s.Notes))
	}
}

func renderRotation(w io.Writer, st styles, picks []domain.Project) {
	if len(picks) == 0 {
		fmt.Fprintln(w, st.dim.Render("No projects are eligible for rotation."))
		return
	}
	for i, p := range picks {
		last := "never"
		if p.LastWorked != nil {
			last = p.LastWorked.Format("2006-01-02")
		}
		fmt.Fprintf(w, "%d. %s %s\n", i+1, st.heading.Render(p.Name),
			st.dim.Render(fmt.Sprintf("(priority %d, last worked %s)", p.Priority, last)))
	}
}
