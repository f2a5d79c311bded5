package commands

import (
	"context"
	"errors"
	"fmt"
	"folio/internal/admin"
	"folio/internal/api"
	"folio/internal/auth"
	"folio/internal/cache"
	"folio/internal/config"
	"folio/internal/models"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// app is the client stack for one invocation: gateway, cache, auth gate and
// admin controllers, plus the saved session they resume.
type app struct {
	cfg      config.Config
	client   *api.Client
	sessions *models.SessionStore
	gate     *auth.Gate
	cache    *cache.Cache
	admin    *admin.Admin
	prompt   *prompter
	logger   *slog.Logger
}

func newApp(cmd *cobra.Command) (*app, error) {
	if globalConfig == nil {
		globalConfig = config.Default()
	}
	cfg := *globalConfig
	if override, _ := cmd.Flags().GetString("server-url"); override != "" {
		cfg.ServerURL = strings.TrimRight(override, "/")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	ttl, err := cfg.TTL()
	if err != nil {
		return nil, err
	}

	configDir, err := config.GetGlobalConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating config directory: %w", err)
	}

	logger := slog.Default()
	client, err := api.NewClient(cfg.ServerURL,
		api.WithRateLimit(cfg.RequestsPerSecond, 5),
		api.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	sessions := models.NewSessionStore(configDir)
	saved, err := sessions.Load()
	if err != nil {
		logger.Warn("ignoring unreadable session file", "path", sessions.SessionFile, "error", err)
	} else {
		client.RestoreSession(saved)
	}

	a := &app{
		cfg:      cfg,
		client:   client,
		sessions: sessions,
		gate:     auth.NewGate(client, logger),
		cache:    cache.New(client, cache.WithTTL(ttl), cache.WithLogger(logger)),
		prompt:   newPrompter(cmd),
		logger:   logger,
	}

	var confirm admin.Confirmer = admin.ConfirmFunc(a.prompt.confirm)
	if force, _ := cmd.Flags().GetBool("force"); force {
		confirm = admin.AlwaysConfirm
	}
	a.admin = admin.New(client, a.cache, a.gate, confirm, logger)

	a.gate.OnChange(func(from, to auth.State, user *models.User) {
		switch {
		case to == auth.Authenticated:
			a.saveSession(user)
		case from == auth.Authenticated:
			a.clearSession()
		}
	})

	return a, nil
}

// start checks the saved session with the backend and fetches a CSRF token
func (a *app) start(ctx context.Context) error {
	return a.gate.Start(ctx)
}

func (a *app) saveSession(user *models.User) {
	session := a.client.ExportSession()
	session.User = user
	if err := a.sessions.Save(session); err != nil {
		a.logger.Warn("could not save session", "error", err)
	}
}

func (a *app) clearSession() {
	if err := a.sessions.Clear(); err != nil {
		a.logger.Warn("could not clear session", "error", err)
	}
}

// protected runs fn. If the session is not authenticated and the terminal is
// interactive, it offers to log in and then runs fn again, returning the user
// to where they were headed.
func (a *app) protected(ctx context.Context, fn func() error) error {
	err := fn()

	var redirect *auth.RedirectError
	if !errors.As(err, &redirect) || !a.prompt.interactive() {
		return err
	}

	ok, promptErr := a.prompt.confirm(fmt.Sprintf("You need to log in to open %s. Log in now?", redirect.From))
	if promptErr != nil || !ok {
		return err
	}
	if _, err := a.login(ctx, a.cfg.Email, ""); err != nil {
		return err
	}
	return fn()
}

// login asks for whatever credentials are missing and authenticates through the gate
func (a *app) login(ctx context.Context, email, password string) (*models.User, error) {
	if email == "" {
		email = a.prompt.ask("Email", a.cfg.Email)
	}
	if password == "" {
		var err error
		password, err = a.prompt.password("Password")
		if err != nil {
			return nil, fmt.Errorf("error reading password: %w", err)
		}
	}

	user, err := a.gate.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	// remember who logged in for whoami when offline
	fileCfg, err := config.LoadGlobalConfig()
	if err != nil {
		a.logger.Warn("could not load config to record login", "error", err)
		return user, nil
	}
	fileCfg.Email = user.Email
	fileCfg.UserID = user.ID
	if err := config.SaveGlobalConfig(fileCfg); err != nil {
		a.logger.Warn("could not record login in config", "error", err)
	}
	return user, nil
}
