package platform

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/modelcontextprotocol/go-sdk/mcp"

	_ "github.com/txn2/moodchat/internal/apidocs" // registers the swagger spec
	"github.com/txn2/moodchat/internal/server"
	"github.com/txn2/moodchat/internal/webui"
	"github.com/txn2/moodchat/pkg/api"
	"github.com/txn2/moodchat/pkg/chatbot"
	"github.com/txn2/moodchat/pkg/conversation"
	"github.com/txn2/moodchat/pkg/database/migrate"
	"github.com/txn2/moodchat/pkg/emotion"
	"github.com/txn2/moodchat/pkg/health"
	httpmw "github.com/txn2/moodchat/pkg/http"
	"github.com/txn2/moodchat/pkg/llm"
	"github.com/txn2/moodchat/pkg/transcript"
	"github.com/txn2/moodchat/pkg/transcript/postgres"
)

// transcriptCleanupInterval is how often expired exchanges are deleted.
const transcriptCleanupInterval = time.Hour

// mcpMethods are the HTTP methods of the streamable MCP transport.
var mcpMethods = []string{http.MethodGet, http.MethodPost, http.MethodDelete}

// Platform wires the chat service together.
type Platform struct {
	config    *Config
	lifecycle *Lifecycle

	db       *sql.DB
	ownsDB   bool
	emotions *emotion.Set
	store    *conversation.Store
	recorder transcript.Recorder
	gateway  chatbot.Gateway
	bot      *chatbot.Orchestrator
	health   *health.Checker

	mcpServer *mcp.Server
	handler   http.Handler
}

// New creates a new platform instance.
func New(opts ...Option) (*Platform, error) {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Config == nil {
		return nil, errors.New("config is required")
	}

	p := &Platform{
		config:    options.Config,
		lifecycle: NewLifecycle(),
	}

	if err := p.initializeComponents(options); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("initializing components: %w", err)
	}

	return p, nil
}

// initializeComponents initializes all platform components.
func (p *Platform) initializeComponents(opts *Options) error {
	set, err := emotion.NewSet(p.config.Emotion)
	if err != nil {
		return fmt.Errorf("building emotion set: %w", err)
	}
	p.emotions = set

	if err := p.initDatabase(opts); err != nil {
		return err
	}
	p.initRecorder(opts)
	p.initConversations()
	if err := p.initGateway(opts); err != nil {
		return err
	}

	p.bot = chatbot.New(p.gateway, p.store, p.recorder, p.config.Chat)
	p.initHealth(opts)
	p.mcpServer = server.New(p.bot)

	return p.initHTTP()
}

// initDatabase opens the exchange log connection when transcripts are enabled.
func (p *Platform) initDatabase(opts *Options) error {
	if opts.DB != nil {
		p.db = opts.DB
		return nil
	}
	if !p.config.Transcript.Enabled || p.config.Database.DSN == "" {
		return nil
	}

	db, err := sql.Open("postgres", p.config.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(p.config.Database.MaxOpenConns)
	p.db = db
	p.ownsDB = true

	p.lifecycle.OnStart(func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		return migrate.Run(db)
	})
	return nil
}

// initRecorder creates the exchange recorder.
func (p *Platform) initRecorder(opts *Options) {
	switch {
	case opts.Recorder != nil:
		p.recorder = opts.Recorder
	case p.db != nil && p.config.Transcript.Enabled:
		store := postgres.New(p.db, postgres.Config{
			RetentionDays: p.config.Transcript.RetentionDays,
			StoreText:     p.config.Transcript.StoreText,
		})
		p.recorder = store
		p.lifecycle.OnStart(func(_ context.Context) error {
			store.StartCleanupRoutine(transcriptCleanupInterval)
			return nil
		})
		p.lifecycle.RegisterCloser(store)
	default:
		p.recorder = transcript.Noop{}
	}
}

// initConversations creates the in-memory session store.
func (p *Platform) initConversations() {
	p.store = conversation.NewStore(p.config.Conversation, p.emotions)
	p.lifecycle.OnStart(func(_ context.Context) error {
		p.store.StartCleanupRoutine(p.config.Conversation.CleanupInterval)
		return nil
	})
	p.lifecycle.RegisterCloser(p.store)
}

// initGateway creates the LLM client unless one was provided.
func (p *Platform) initGateway(opts *Options) error {
	if opts.Gateway != nil {
		p.gateway = opts.Gateway
		return nil
	}
	client, err := llm.NewClient(p.config.LLM, p.emotions.Labels())
	if err != nil {
		return fmt.Errorf("creating llm client: %w", err)
	}
	p.gateway = client
	return nil
}

// initHealth registers dependency probes on the readiness tracker.
func (p *Platform) initHealth(opts *Options) {
	p.health = opts.Health
	if p.health == nil {
		p.health = health.NewChecker()
	}

	if client, ok := p.gateway.(*llm.Client); ok {
		p.health.AddProbe("llm", func(context.Context) error {
			if client.CredentialRejected() {
				return errors.New("api key rejected by upstream")
			}
			return nil
		})
	}
	if p.db != nil {
		db := p.db
		p.health.AddProbe("database", func(ctx context.Context) error {
			return db.PingContext(ctx)
		})
	}
}

// initHTTP builds the HTTP handler: REST API, MCP endpoint, static page
// and the middleware chain.
func (p *Platform) initHTTP() error {
	static, err := webui.Handler(p.config.Server.StaticDir)
	if err != nil {
		return fmt.Errorf("loading static assets: %w", err)
	}

	h := api.NewHandler(api.Deps{
		Bot:      p.bot,
		Recorder: p.recorder,
		Health:   p.health,
		Model:    p.Model(),
		Static:   static,
		Swagger:  p.config.Server.SwaggerEnabled(),
	})

	if p.config.Server.MCPEnabled() {
		mcpHandler := server.Handler(p.mcpServer)
		for _, m := range mcpMethods {
			h.Handle(m+" /mcp", mcpHandler)
		}
	}

	p.handler = httpmw.Chain(h,
		httpmw.Recover(),
		httpmw.RequestID(),
		httpmw.Logging(),
		httpmw.CORS(p.config.Server.CORSOrigins),
	)
	return nil
}

// Start runs the start callbacks and marks the service ready.
func (p *Platform) Start(ctx context.Context) error {
	if err := p.lifecycle.Start(ctx); err != nil {
		return err
	}
	p.health.SetReady()
	slog.Info("platform started",
		"model", p.Model(),
		"transcript", p.db != nil && p.config.Transcript.Enabled,
		"window", p.config.Conversation.WindowSize,
	)
	return nil
}

// Stop marks the service draining and runs the stop callbacks.
func (p *Platform) Stop(ctx context.Context) error {
	p.health.SetDraining()
	return p.lifecycle.Stop(ctx)
}

// Handler returns the HTTP handler serving every endpoint.
func (p *Platform) Handler() http.Handler {
	return p.handler
}

// MCPServer returns the MCP server.
func (p *Platform) MCPServer() *mcp.Server {
	return p.mcpServer
}

// Config returns the platform configuration.
func (p *Platform) Config() *Config {
	return p.config
}

// Orchestrator returns the chat orchestrator.
func (p *Platform) Orchestrator() *chatbot.Orchestrator {
	return p.bot
}

// Health returns the readiness tracker.
func (p *Platform) Health() *health.Checker {
	return p.health
}

// Recorder returns the exchange recorder.
func (p *Platform) Recorder() transcript.Recorder {
	return p.recorder
}

// Model returns the configured model name.
func (p *Platform) Model() string {
	if client, ok := p.gateway.(*llm.Client); ok {
		return client.Model()
	}
	return p.config.LLM.Model
}

// closeResource closes a resource and appends any error.
func closeResource(errs *[]error, closer Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		*errs = append(*errs, err)
	}
}

// Close closes all platform resources.
func (p *Platform) Close() error {
	var errs []error

	if p.recorder != nil {
		closeResource(&errs, p.recorder)
	}
	if p.store != nil {
		closeResource(&errs, p.store)
	}
	if p.ownsDB && p.db != nil {
		closeResource(&errs, p.db)
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing platform: %v", errs)
	}
	return nil
}
