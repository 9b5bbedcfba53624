package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/donna-backend/config"
	"github.com/GoSim-25-26J-441/donna-backend/internal/agent"
	"github.com/GoSim-25-26J-441/donna-backend/internal/braindump"
	"github.com/GoSim-25-26J-441/donna-backend/internal/calendar"
	"github.com/GoSim-25-26J-441/donna-backend/internal/calendly"
	crmrepo "github.com/GoSim-25-26J-441/donna-backend/internal/crm/repository"
	crmsvc "github.com/GoSim-25-26J-441/donna-backend/internal/crm/service"
	"github.com/GoSim-25-26J-441/donna-backend/internal/jobs"
	projectdomain "github.com/GoSim-25-26J-441/donna-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/donna-backend/internal/projects/prd"
	projectrepo "github.com/GoSim-25-26J-441/donna-backend/internal/projects/repository"
	projectsvc "github.com/GoSim-25-26J-441/donna-backend/internal/projects/service"
	"github.com/GoSim-25-26J-441/donna-backend/internal/reviews"
	"github.com/GoSim-25-26J-441/donna-backend/internal/schedule"
	schedulerepo "github.com/GoSim-25-26J-441/donna-backend/internal/schedule/repository"
	schedulesvc "github.com/GoSim-25-26J-441/donna-backend/internal/schedule/service"
	"github.com/GoSim-25-26J-441/donna-backend/internal/storage/postgres"
	taskrepo "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/repository"
	tasksvc "github.com/GoSim-25-26J-441/donna-backend/internal/tasks/service"
	"github.com/GoSim-25-26J-441/donna-backend/internal/telegram"
	"github.com/GoSim-25-26J-441/donna-backend/internal/voice"
)

// App holds every service built from the configuration. Members for
// integrations without credentials are nil.
type App struct {
	Config   *config.Config
	Location *time.Location

	Pool  *pgxpool.Pool
	SQL   *sql.DB
	Redis *redis.Client

	Projects  *projectsvc.ProjectService
	Tasks     *tasksvc.TaskService
	CRM       *crmsvc.CRMService
	Schedules *schedulesvc.ScheduleService
	Dumps     *braindump.Store
	Reviews   *reviews.Reviewer
	Calendar  *calendar.Client
	Calendly  *calendly.Client
	LLM       *agent.LLM
	Agent     *agent.Agent
	Speaker   *voice.Synthesizer
	Archive   *voice.Archive

	Notifier  *telegram.Notifier
	Bot       *telegram.Bot
	Scheduler *jobs.Scheduler
	Watcher   *prd.Watcher

	tgClient *telegram.Client
}

// NewApp connects the stores and builds the services. Postgres is required;
// Redis and every external integration degrade to disabled.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, Location: cfg.Location()}

	pool, err := OpenDB(ctx, DBOptions{DSN: postgres.DSN(&cfg.Database)})
	if err != nil {
		return nil, err
	}
	a.Pool = pool

	sqlDB, err := postgres.NewConnection(ctx, &cfg.Database)
	if err != nil {
		pool.Close()
		return nil, err
	}
	a.SQL = sqlDB

	if rdb, err := OpenRedis(ctx, cfg.Redis); err != nil {
		log.Printf("[redis] unavailable, caching disabled: %v", err)
	} else {
		a.Redis = rdb
	}

	a.buildCore()
	a.buildIntegrations(ctx)
	a.buildAgent()
	a.buildBot()
	return a, nil
}

func (a *App) buildCore() {
	cfg := a.Config

	a.Projects = projectsvc.NewProjectService(projectrepo.NewRepo(a.Pool))
	a.Tasks = tasksvc.NewTaskService(taskrepo.NewRepo(a.Pool), a.Location)
	a.CRM = crmsvc.NewCRMService(crmrepo.NewRepo(a.Pool))

	templates := schedulerepo.Chain{
		schedulerepo.NewTemplateRepo(a.Pool),
		schedulerepo.NewFileLoader(cfg.App.Workspace),
	}
	assembler := schedule.NewAssembler(a.Projects, templates, prd.Digest, schedule.WithSignals(a.Tasks))

	var cache schedulesvc.Cache
	if a.Redis != nil {
		cache = schedulerepo.NewCacheRepo(a.Redis)
	}
	a.Schedules = schedulesvc.NewScheduleService(assembler, cache, schedulerepo.NewArchiveRepo(a.SQL), templates, a.Location)

	a.LLM = agent.NewLLM(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	var completer braindump.Completer
	if a.LLM.Configured() {
		completer = a.LLM
	}
	a.Dumps = braindump.NewStore(cfg.App.Workspace, completer, a.Location)
	a.Reviews = reviews.NewReviewer(a.Tasks, a.Projects, a.Dumps, a.Schedules)
}

func (a *App) buildIntegrations(ctx context.Context) {
	cfg := a.Config

	svc, err := calendar.NewService(ctx, cfg.Google.CredentialsPath, cfg.Google.TokenPath)
	switch {
	case err == nil:
		a.Calendar = calendar.NewClient(svc, cfg.Google.CalendarID, a.Location)
	case errors.Is(err, calendar.ErrNotConfigured):
	default:
		log.Printf("[calendar] disabled: %v", err)
	}

	if cfg.Calendly.APIKey != "" {
		a.Calendly = calendly.NewClient(cfg.Calendly.APIKey)
	}

	if cfg.VoiceEnabled() {
		a.Speaker = voice.NewSynthesizer(cfg.ElevenLabs.APIKey, cfg.ElevenLabs.VoiceID, voice.WithModel(cfg.ElevenLabs.ModelID))
	}
	if cfg.Storage.VoiceArchiveBucket != "" {
		archive, err := voice.NewS3Archive(ctx, cfg.Storage.VoiceArchiveBucket, cfg.Storage.AWSRegion)
		if err != nil {
			log.Printf("[voice] archive disabled: %v", err)
		} else {
			a.Archive = archive
		}
	}

	if cfg.TelegramEnabled() {
		a.tgClient = telegram.NewClient(cfg.Telegram.BotToken)
		notifier, err := telegram.NewNotifier(a.tgClient, cfg.Telegram.ChatID)
		if err != nil {
			log.Printf("[telegram] disabled: %v", err)
			return
		}
		a.Notifier = notifier
	}
}

func (a *App) buildAgent() {
	registry := a.Registry()
	log.Printf("[agent] %d tools registered", registry.Len())

	if !a.LLM.Configured() {
		log.Println("[agent] OPENAI_API_KEY not set, chat disabled")
		return
	}
	opts := []agent.Option{agent.WithLocation(a.Location)}
	if a.Redis != nil {
		opts = append(opts, agent.WithMemory(agent.NewRedisMemory(a.Redis)))
	}
	a.Agent = agent.New(a.LLM, registry, opts...)
}

func (a *App) buildBot() {
	if a.Notifier == nil {
		return
	}
	deps := telegram.Deps{
		Schedules:   a.Schedules,
		Projects:    a.Projects,
		Tasks:       a.Tasks,
		Dumps:       a.Dumps,
		Transcriber: voice.NewTranscriber(a.Config.OpenAI.APIKey, nil, ""),
	}
	if a.Agent != nil {
		deps.Agent = a.Agent
	}
	if a.Speaker != nil {
		deps.Speaker = a.Speaker
	}
	a.Bot = telegram.NewBot(a.tgClient, a.Notifier.ChatID(), deps)
}

// Services lists the configured services for tool registration.
func (a *App) Services() agent.Services {
	return agent.Services{
		Schedules: a.Schedules,
		Projects:  a.Projects,
		Tasks:     a.Tasks,
		Dumps:     a.Dumps,
		Calendar:  a.Calendar,
		Reviews:   a.Reviews,
		CRM:       a.CRM,
	}
}

// Registry builds a tool registry over the configured services.
func (a *App) Registry() *agent.Registry {
	r := agent.NewRegistry()
	agent.RegisterTools(r, a.Services())
	return r
}

// StartBackground starts the scheduled jobs, the Telegram bot and the PRD
// watcher. They stop when ctx is cancelled or Close is called.
func (a *App) StartBackground(ctx context.Context) error {
	cfg := a.Config

	if a.Notifier != nil && cfg.Scheduler.Enabled {
		deps := jobs.Deps{
			Notifier:  a.Notifier,
			Schedules: a.Schedules,
			Reviews:   a.Reviews,
			Projects:  a.Projects,
			Redis:     a.Redis,
		}
		if a.Speaker != nil {
			deps.Speaker = a.Speaker
		}
		if a.Archive != nil {
			deps.Archive = a.Archive
		}
		if a.Calendar != nil {
			deps.Events = a.Calendar
		}
		if a.Calendly != nil {
			deps.Calls = a.Calendly
		}
		a.Scheduler = jobs.NewScheduler(jobs.Config{
			MorningBrief:      cfg.Scheduler.MorningBriefTime,
			EveningSummary:    cfg.Scheduler.EveningSummaryTime,
			EventCheckMinutes: cfg.Scheduler.EventCheckMinutes,
			CalendlySyncHours: cfg.Calendly.SyncIntervalHours,
		}, a.Location, deps)
		if err := a.Scheduler.Start(ctx); err != nil {
			return fmt.Errorf("start scheduler: %w", err)
		}
	} else {
		log.Println("[jobs] scheduler disabled")
	}

	if err := a.watchPRDs(ctx); err != nil {
		return err
	}

	if a.Bot != nil {
		go func() {
			if err := a.Bot.Run(ctx); err != nil {
				log.Printf("[telegram] bot stopped: %v", err)
			}
		}()
	}
	return nil
}

// watchPRDs drops cached schedules for today and tomorrow when a tracked
// PRD status file changes, so the next read carries the new digest.
// Projects registered later are tracked as they are added.
func (a *App) watchPRDs(ctx context.Context) error {
	w, err := prd.NewWatcher(func(projectID string) {
		log.Printf("[prd] status changed for %s", projectID)
		today := a.Schedules.Today()
		a.Schedules.Invalidate(context.Background(), today, today.AddDate(0, 0, 1))
	})
	if err != nil {
		log.Printf("[prd] watcher disabled: %v", err)
		return nil
	}
	projects, err := a.Projects.List(ctx)
	if err != nil {
		w.Close()
		return fmt.Errorf("list projects: %w", err)
	}
	log.Printf("[prd] watching %d status files", w.Track(projects))
	a.Projects.OnAdded(func(p projectdomain.Project) {
		log.Printf("[prd] watching %d status files after adding %s", w.Track([]projectdomain.Project{p}), p.ID)
	})
	a.Watcher = w
	go w.Run()
	return nil
}

// WebhookHandler returns the Calendly webhook handler. Bookings reach the
// schedule even when there is nobody to notify.
func (a *App) WebhookHandler() *calendly.WebhookHandler {
	var notifier calendly.Notifier
	if a.Notifier != nil {
		notifier = a.Notifier
	}
	return calendly.NewWebhookHandler(a.Config.Calendly.WebhookSecret, notifier, a.Schedules, a.Location)
}

func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Watcher != nil {
		a.Watcher.Close()
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.SQL != nil {
		a.SQL.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
}
