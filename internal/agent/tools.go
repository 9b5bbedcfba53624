package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/donna-backend/internal/braindump"
	"github.com/GoSim-25-26J-441/donna-backend/internal/calendar"
	crmdomain "github.com/GoSim-25-26J-441/donna-backend/internal/crm/domain"
	crmsvc "github.com/GoSim-25-26J-441/donna-backend/internal/crm/service"
	projectsvc "github.com/GoSim-25-26J-441/donna-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/donna-backend/internal/reviews"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	schedulesvc "github.com/GoSim-25-26J-441/donna-backend/internal/schedule/service"
	tasksvc "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/service"
)

// Services holds the integrations exposed as tools. Nil members are
// skipped when registering.
type Services struct {
	Schedules *schedulesvc.ScheduleService
	Projects  *projectsvc.ProjectService
	Tasks     *tasksvc.TaskService
	Dumps     *braindump.Store
	Calendar  *calendar.Client
	Reviews   *reviews.Reviewer
	CRM       *crmsvc.CRMService
}

type none struct{}

func str(name, desc string, required bool) Param {
	return Param{Name: name, Type: "string", Description: desc, Required: required}
}

func integer(name, desc string) Param {
	return Param{Name: name, Type: "integer", Description: desc}
}

func orDefault(n, def int) int {
	if n <= 0 {
		return def
	}
	return n
}

// RegisterTools adds every tool whose backing service is present.
func RegisterTools(r *Registry, s Services) {
	if s.Schedules != nil {
		registerSchedule(r, s.Schedules)
		if s.Calendar != nil {
			registerCalendarSync(r, s.Calendar, s.Schedules)
		}
	}
	if s.Projects != nil {
		registerProjects(r, s.Projects, s.Schedules)
	}
	if s.Dumps != nil {
		registerDumps(r, s.Dumps)
	}
	if s.Tasks != nil {
		registerTasks(r, s.Tasks)
	}
	if s.Calendar != nil {
		registerCalendar(r, s.Calendar)
	}
	if s.Reviews != nil {
		registerReviews(r, s.Reviews)
	}
	if s.CRM != nil {
		registerCRM(r, s.CRM)
	}
}

type dateReq struct {
	Date string `json:"date"`
}

type updateScheduleReq struct {
	Date      string `json:"date"`
	TimeRange string `json:"time_range"`
	schedulesvc.UpdateRequest
}

type rotationReq struct {
	Slots int `json:"slots"`
}

type templateReq struct {
	BlockName string `json:"block_name"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Days      string `json:"days"`
}

func registerSchedule(r *Registry, svc *schedulesvc.ScheduleService) {
	dateParam := str("date", "Date as YYYY-MM-DD, today or tomorrow. Defaults to today.", false)

	Register(r, Spec{
		Name:        "generate_daily_schedule",
		Description: "Generate a fresh daily schedule from the weekly template, project rotation and calendar calls.",
		Params:      []Param{dateParam},
	}, func(ctx context.Context, req dateReq) (string, error) {
		date, err := svc.ParseDate(req.Date)
		if err != nil {
			return "", err
		}
		out, err := svc.Generate(ctx, date)
		if err != nil {
			return "", err
		}
		return schedule.Render(*out), nil
	})

	Register(r, Spec{
		Name:        "get_schedule_for_date",
		Description: "Get the schedule for a specific date, using the stored copy when one exists.",
		Params:      []Param{str("date", "Date as YYYY-MM-DD.", true)},
	}, func(ctx context.Context, req dateReq) (string, error) {
		date, err := svc.ParseDate(req.Date)
		if err != nil {
			return "", err
		}
		out, err := svc.ForDate(ctx, date)
		if err != nil {
			return "", err
		}
		return schedule.Render(*out), nil
	})

	Register(r, Spec{
		Name:        "get_tomorrow_schedule",
		Description: "Get tomorrow's schedule.",
	}, func(ctx context.Context, _ none) (string, error) {
		out, err := svc.Tomorrow(ctx)
		if err != nil {
			return "", err
		}
		return schedule.Render(*out), nil
	})

	Register(r, Spec{
		Name:        "update_schedule",
		Description: "Edit a day's schedule: move a project into a block, add a call, or remove a block.",
		Params: []Param{
			dateParam,
			{Name: "action", Type: "string", Required: true, Description: "What to change.",
				Enum: []string{schedulesvc.ActionMoveProject, schedulesvc.ActionAddCall, schedulesvc.ActionRemoveBlock}},
			str("project_id", "Project to place (move_project).", false),
			str("block", "Title of the block to change or remove.", false),
			str("time_range", "Time range such as 14:00-14:30 or 2pm-3pm.", false),
			str("start", "Start time, used when time_range is empty.", false),
			str("end", "End time, used when time_range is empty.", false),
			str("title", "Call title (add_call).", false),
			str("notes", "Notes for the block.", false),
		},
	}, func(ctx context.Context, req updateScheduleReq) (string, error) {
		date, err := svc.ParseDate(req.Date)
		if err != nil {
			return "", err
		}
		if req.TimeRange != "" {
			if req.Start, req.End, err = schedulesvc.ParseTimeRange(req.TimeRange); err != nil {
				return "", err
			}
		}
		out, err := svc.Update(ctx, date, req.UpdateRequest)
		if err != nil {
			return "", err
		}
		return schedule.Render(*out), nil
	})

	Register(r, Spec{
		Name:        "select_rotation",
		Description: "Pick the projects for today's rotation slots, least recently worked first.",
		Params:      []Param{integer("slots", "Number of projects to pick. Defaults to 2.")},
	}, func(ctx context.Context, req rotationReq) (string, error) {
		picks, err := svc.Rotation(ctx, orDefault(req.Slots, 2))
		if err != nil {
			return "", err
		}
		if len(picks) == 0 {
			return "No projects are eligible for rotation.", nil
		}
		names := make([]string, len(picks))
		for i, p := range picks {
			names[i] = fmt.Sprintf("%d. %s", i+1, p.Name)
		}
		return "Rotation:\n" + strings.Join(names, "\n"), nil
	})

	Register(r, Spec{
		Name:        "update_schedule_template",
		Description: "Change a block of the weekly template (start, end or active days).",
		Params: []Param{
			str("block_name", "Name of the block, for example Gym or Sigmavue.", true),
			str("start_time", "New start time.", false),
			str("end_time", "New end time.", false),
			str("days", "Comma separated weekdays, for example monday,wednesday,friday.", false),
		},
	}, func(ctx context.Context, req templateReq) (string, error) {
		u := schedule.BlockUpdate{Name: strings.TrimSpace(req.BlockName)}
		if req.StartTime != "" {
			c, err := schedule.ParseClock(req.StartTime)
			if err != nil {
				return "", err
			}
			u.Start = &c
		}
		if req.EndTime != "" {
			c, err := schedule.ParseClock(req.EndTime)
			if err != nil {
				return "", err
			}
			u.End = &c
		}
		if req.Days != "" {
			for _, d := range strings.Split(req.Days, ",") {
				if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
					u.Days = append(u.Days, d)
				}
			}
		}
		if _, err := svc.UpdateTemplate(ctx, u); err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated the %s block. Future schedules will use it.", u.Name), nil
	})
}

type projectReq struct {
	ProjectName string `json:"project_name"`
}

type scanReq struct {
	Path        string `json:"path"`
	Name        string `json:"name"`
	ProjectType string `json:"project_type"`
}

type attentionReq struct {
	DaysThreshold int `json:"days_threshold"`
}

func registerProjects(r *Registry, svc *projectsvc.ProjectService, schedules *schedulesvc.ScheduleService) {
	nameParam := str("project_name", "Project id or name.", true)

	Register(r, Spec{
		Name:        "get_all_projects",
		Description: "List all tracked projects by priority.",
	}, func(ctx context.Context, _ none) (string, error) {
		list, err := svc.List(ctx)
		if err != nil {
			return "", err
		}
		return projectsvc.Markdown(list), nil
	})

	Register(r, Spec{
		Name:        "get_project_prd_status",
		Description: "Summarise a project's PRD status file: current and next PRD with counts.",
		Params:      []Param{nameParam},
	}, func(ctx context.Context, req projectReq) (string, error) {
		sum, err := svc.PRDStatus(ctx, req.ProjectName)
		if err != nil {
			return "", err
		}
		return sum.Markdown(), nil
	})

	Register(r, Spec{
		Name:        "scan_and_add_project",
		Description: "Scan a project folder for PRD and agent files and start tracking it.",
		Params: []Param{
			str("path", "Absolute path to the project folder.", true),
			str("name", "Display name. Defaults to the folder name.", false),
			{Name: "project_type", Type: "string", Description: "Project type.",
				Enum: []string{"startup", "personal", "client"}},
		},
	}, func(ctx context.Context, req scanReq) (*projectsvc.ScanResult, error) {
		return svc.ScanAndAdd(ctx, projectsvc.ScanInput{Path: req.Path, Name: req.Name, Type: req.ProjectType})
	})

	Register(r, Spec{
		Name:        "update_project_last_worked",
		Description: "Record that a project was worked on today.",
		Params:      []Param{nameParam},
	}, func(ctx context.Context, req projectReq) (string, error) {
		p, err := svc.MarkWorked(ctx, req.ProjectName)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Marked %s as worked on today.", p.Name), nil
	})

	Register(r, Spec{
		Name:        "get_projects_needing_attention",
		Description: "Projects that have not been worked on for a while.",
		Params:      []Param{integer("days_threshold", "Days without work. Defaults to 7.")},
	}, func(ctx context.Context, req attentionReq) (string, error) {
		days := orDefault(req.DaysThreshold, 7)
		list, err := svc.NeedingAttention(ctx, days)
		if err != nil {
			return "", err
		}
		if len(list) == 0 {
			return fmt.Sprintf("Every project has been touched in the last %d days.", days), nil
		}
		return projectsvc.Markdown(list), nil
	})

	if schedules == nil {
		return
	}
	Register(r, Spec{
		Name:        "suggest_next_project",
		Description: "Suggest the project to work on next.",
	}, func(ctx context.Context, _ none) (string, error) {
		picks, err := schedules.Rotation(ctx, 1)
		if err != nil {
			return "", err
		}
		if len(picks) == 0 {
			return "Nothing is waiting in the rotation.", nil
		}
		p := picks[0]
		last := "never"
		if p.LastWorked != nil {
			last = p.LastWorked.Format("2006-01-02")
		}
		return fmt.Sprintf("Work on %s next. Last worked: %s.", p.Name, last), nil
	})
}

type dumpReq struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

type searchReq struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

type limitReq struct {
	Limit int `json:"limit"`
}

type pathReq struct {
	Path string `json:"path"`
}

func registerDumps(r *Registry, store *braindump.Store) {
	Register(r, Spec{
		Name:        "create_brain_dump",
		Description: "Save an idea or brain dump as a markdown note.",
		Params: []Param{
			str("content", "The idea, in the user's words.", true),
			str("title", "Optional title. Defaults to the first line.", false),
		},
	}, func(ctx context.Context, req dumpReq) (string, error) {
		d, err := store.Create(ctx, braindump.CreateInput{Content: req.Content, Title: req.Title, Source: "agent"})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Saved brain dump %q to %s.", d.Title, d.Path), nil
	})

	Register(r, Spec{
		Name:        "search_brain_dumps",
		Description: "Search saved brain dumps.",
		Params:      []Param{str("query", "Text to look for.", true), integer("limit", "Maximum results. Defaults to 10.")},
	}, func(ctx context.Context, req searchReq) (string, error) {
		matches, err := store.Search(ctx, req.Query, orDefault(req.Limit, 10))
		if err != nil {
			return "", err
		}
		if len(matches) == 0 {
			return fmt.Sprintf("No brain dumps mention %q.", req.Query), nil
		}
		var b strings.Builder
		for _, m := range matches {
			fmt.Fprintf(&b, "- %s (%s): %s\n  %s\n", m.Title, m.Date, m.Excerpt, m.Path)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	})

	Register(r, Spec{
		Name:        "get_recent_brain_dumps",
		Description: "List the most recent brain dumps.",
		Params:      []Param{integer("limit", "Maximum results. Defaults to 5.")},
	}, func(ctx context.Context, req limitReq) (string, error) {
		dumps, err := store.Recent(ctx, orDefault(req.Limit, 5))
		if err != nil {
			return "", err
		}
		if len(dumps) == 0 {
			return "No brain dumps yet.", nil
		}
		var b strings.Builder
		for _, d := range dumps {
			fmt.Fprintf(&b, "- %s (%s) %s\n", d.Title, d.CreatedAt.Format("2006-01-02 15:04"), d.Path)
		}
		return strings.TrimRight(b.String(), "\n"), nil
	})

	Register(r, Spec{
		Name:        "extract_action_items",
		Description: "Pull action items out of a brain dump and append them to the file.",
		Params:      []Param{str("path", "Path of the brain dump file.", true)},
	}, func(ctx context.Context, req pathReq) (string, error) {
		return store.ExtractActionItems(ctx, req.Path)
	})
}

type titleReq struct {
	Title string `json:"title"`
}

type priorityReq struct {
	Title    string `json:"title"`
	Priority string `json:"priority"`
}

func registerTasks(r *Registry, svc *tasksvc.TaskService) {
	priorities := []string{"signal", "high", "medium", "low", "noise"}
	titleParam := str("title", "Part of the task title.", true)

	Register(r, Spec{
		Name:        "add_task",
		Description: "Add a task to the to-do list.",
		Params: []Param{
			str("title", "Task title.", true),
			{Name: "priority", Type: "string", Description: "Priority. Defaults to medium.", Enum: priorities},
			str("project", "Related project id.", false),
			str("due_date", "today, tomorrow or YYYY-MM-DD.", false),
			str("description", "Details.", false),
		},
	}, func(ctx context.Context, req tasksvc.AddInput) (string, error) {
		t, err := svc.Add(ctx, req)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %q with %s priority.", t.Title, t.Priority), nil
	})

	Register(r, Spec{
		Name:        "get_tasks",
		Description: "List tasks, optionally filtered.",
		Params: []Param{
			{Name: "status", Type: "string", Description: "Defaults to pending.", Enum: []string{"pending", "in_progress", "completed", "all"}},
			str("project", "Project id.", false),
			{Name: "priority", Type: "string", Description: "Priority filter.", Enum: priorities},
			integer("limit", "Maximum results."),
		},
	}, func(ctx context.Context, req tasksvc.ListInput) (string, error) {
		list, err := svc.List(ctx, req)
		if err != nil {
			return "", err
		}
		return tasksvc.Markdown(list), nil
	})

	Register(r, Spec{
		Name:        "complete_task",
		Description: "Mark a pending task as done.",
		Params:      []Param{titleParam},
	}, func(ctx context.Context, req titleReq) (string, error) {
		t, err := svc.Complete(ctx, req.Title)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Done: %s.", t.Title), nil
	})

	Register(r, Spec{
		Name:        "delete_task",
		Description: "Delete a task.",
		Params:      []Param{titleParam},
	}, func(ctx context.Context, req titleReq) (string, error) {
		t, err := svc.Delete(ctx, req.Title)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted %q.", t.Title), nil
	})

	Register(r, Spec{
		Name:        "get_signal_tasks",
		Description: "The few tasks that actually move the needle today.",
	}, func(ctx context.Context, _ none) (string, error) {
		list, err := svc.Signal(ctx)
		if err != nil {
			return "", err
		}
		if len(list) == 0 {
			return "No signal tasks. Add some, or enjoy the quiet.", nil
		}
		return tasksvc.Markdown(list), nil
	})

	Register(r, Spec{
		Name:        "update_task_priority",
		Description: "Change a task's priority.",
		Params: []Param{
			titleParam,
			{Name: "priority", Type: "string", Description: "New priority.", Required: true, Enum: priorities},
		},
	}, func(ctx context.Context, req priorityReq) (string, error) {
		t, err := svc.UpdatePriority(ctx, req.Title, req.Priority)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%q is now %s priority.", t.Title, t.Priority), nil
	})
}

type timeBlockReq struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
}

type syncReq struct {
	IncludeMorning *bool `json:"include_morning"`
	IncludeWork    *bool `json:"include_work"`
	IncludeEvening *bool `json:"include_evening"`
	ClearExisting  *bool `json:"clear_existing"`
}

func pick(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// EventsText lists calendar events one per line.
func EventsText(events []calendar.Event, loc *time.Location) string {
	if len(events) == 0 {
		return "Nothing on the calendar."
	}
	var b strings.Builder
	for _, e := range events {
		if e.AllDay {
			fmt.Fprintf(&b, "- All day: %s\n", e.Title)
			continue
		}
		fmt.Fprintf(&b, "- %s - %s: %s\n", e.Start.In(loc).Format("3:04 PM"), e.End.In(loc).Format("3:04 PM"), e.Title)
	}
	return strings.TrimRight(b.String(), "\n")
}

func registerCalendar(r *Registry, cal *calendar.Client) {
	Register(r, Spec{
		Name:        "get_today_events",
		Description: "List today's Google Calendar events.",
	}, func(ctx context.Context, _ none) (string, error) {
		events, err := cal.TodayEvents(ctx)
		if err != nil {
			return "", err
		}
		return EventsText(events, cal.Location()), nil
	})

	Register(r, Spec{
		Name:        "create_time_block",
		Description: "Block off time on the calendar.",
		Params: []Param{
			str("title", "Event title.", true),
			str("date", "YYYY-MM-DD. Defaults to today.", false),
			str("start_time", "Start time.", true),
			str("end_time", "End time.", true),
			str("description", "Event description.", false),
		},
	}, func(ctx context.Context, req timeBlockReq) (string, error) {
		loc := cal.Location()
		date := time.Now().In(loc)
		if req.Date != "" {
			d, err := time.ParseInLocation(schedule.DateLayout, req.Date, loc)
			if err != nil {
				return "", fmt.Errorf("invalid date %q, expected YYYY-MM-DD", req.Date)
			}
			date = d
		}
		start, err := schedule.ParseClock(req.StartTime)
		if err != nil {
			return "", err
		}
		end, err := schedule.ParseClock(req.EndTime)
		if err != nil {
			return "", err
		}
		ev, err := cal.CreateTimeBlock(ctx, calendar.TimeBlockInput{
			Title: req.Title, Date: date, Start: start, End: end, Description: req.Description,
		})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Blocked %s on %s, %s - %s.", ev.Title, date.Format("Monday, January 02"), start, end), nil
	})

	Register(r, Spec{
		Name:        "clear_donna_calendar_events",
		Description: "Remove every calendar event Donna created.",
	}, func(ctx context.Context, _ none) (string, error) {
		n, err := cal.ClearManaged(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Cleared %d Donna events.", n), nil
	})
}

func registerCalendarSync(r *Registry, cal *calendar.Client, schedules *schedulesvc.ScheduleService) {
	Register(r, Spec{
		Name:        "sync_schedule_to_calendar",
		Description: "Write the weekly template to Google Calendar as recurring events.",
		Params: []Param{
			{Name: "include_morning", Type: "boolean", Description: "Include personal morning blocks. Defaults to true."},
			{Name: "include_work", Type: "boolean", Description: "Include work blocks. Defaults to true."},
			{Name: "include_evening", Type: "boolean", Description: "Include evening blocks. Defaults to false."},
			{Name: "clear_existing", Type: "boolean", Description: "Remove previous Donna events first. Defaults to true."},
		},
	}, func(ctx context.Context, req syncReq) (*calendar.SyncResult, error) {
		tmpl, err := schedules.Template(ctx)
		if err != nil {
			return nil, err
		}
		def := calendar.DefaultSyncOptions()
		return cal.SyncTemplate(ctx, tmpl, calendar.SyncOptions{
			Morning:       pick(req.IncludeMorning, def.Morning),
			Work:          pick(req.IncludeWork, def.Work),
			Evening:       pick(req.IncludeEvening, def.Evening),
			ClearExisting: pick(req.ClearExisting, def.ClearExisting),
		})
	})
}

func registerReviews(r *Registry, rev *reviews.Reviewer) {
	Register(r, Spec{
		Name:        "generate_weekly_review",
		Description: "Review the past seven days: tasks done, ideas captured, projects touched.",
	}, func(ctx context.Context, _ none) (string, error) {
		w, err := rev.Weekly(ctx)
		if err != nil {
			return "", err
		}
		return w.Markdown(), nil
	})

	Register(r, Spec{
		Name:        "generate_week_ahead",
		Description: "Plan the coming week from pending tasks, projects and the template.",
	}, func(ctx context.Context, _ none) (string, error) {
		w, err := rev.Ahead(ctx)
		if err != nil {
			return "", err
		}
		return w.Markdown(), nil
	})
}

type queryReq struct {
	Query string `json:"query"`
}

func registerCRM(r *Registry, svc *crmsvc.CRMService) {
	Register(r, Spec{
		Name:        "add_client",
		Description: "Add a client to the CRM.",
		Params: []Param{
			str("name", "Client name.", true),
			str("email", "Email.", false),
			str("phone", "Phone.", false),
			str("company", "Company.", false),
			str("source", "Where the client came from, for example referral or upwork.", false),
			str("notes", "Notes.", false),
		},
	}, func(ctx context.Context, req crmsvc.ClientInput) (*crmdomain.Client, error) {
		return svc.AddClient(ctx, req)
	})

	Register(r, Spec{
		Name:        "search_clients",
		Description: "Find clients by name, email or company.",
		Params:      []Param{str("query", "Search text.", true)},
	}, func(ctx context.Context, req queryReq) ([]crmdomain.Client, error) {
		return svc.SearchClients(ctx, req.Query)
	})

	Register(r, Spec{
		Name:        "create_deal",
		Description: "Create a deal for a client.",
		Params: []Param{
			str("client_name", "Existing client name.", true),
			str("title", "Deal title.", true),
			str("deal_type", "Kind of work, for example website or retainer.", true),
			{Name: "amount", Type: "number", Description: "Deal value.", Required: true},
			{Name: "status", Type: "string", Description: "Defaults to prospect.",
				Enum: []string{"prospect", "negotiating", "closed", "in_progress", "completed", "cancelled"}},
			str("notes", "Notes.", false),
		},
	}, func(ctx context.Context, req crmsvc.DealInput) (*crmdomain.Deal, error) {
		return svc.CreateDeal(ctx, req)
	})

	Register(r, Spec{
		Name:        "log_payment",
		Description: "Record a payment against the client's first unpaid active deal.",
		Params: []Param{
			str("client_name", "Client name.", true),
			{Name: "amount", Type: "number", Description: "Amount received.", Required: true},
			str("method", "Payment method.", false),
			str("notes", "Notes.", false),
		},
	}, func(ctx context.Context, req crmsvc.PaymentInput) (*crmdomain.PaymentResult, error) {
		return svc.LogPayment(ctx, req)
	})

	Register(r, Spec{
		Name:        "get_revenue_summary",
		Description: "Total deal value, collected and pending revenue.",
	}, func(ctx context.Context, _ none) (*crmdomain.RevenueSummary, error) {
		return svc.RevenueSummary(ctx)
	})
}
