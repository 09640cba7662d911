package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abhisek/diagz/internal/app"
	"github.com/abhisek/diagz/internal/backend"
	"github.com/abhisek/diagz/internal/chat"
	"github.com/abhisek/diagz/internal/config"
	"github.com/abhisek/diagz/internal/llm"
	"github.com/abhisek/diagz/internal/screen"
	"github.com/abhisek/diagz/internal/screens"
	"github.com/abhisek/diagz/internal/screens/notice"
	"github.com/abhisek/diagz/internal/store"
	"github.com/spf13/cobra"
)

// session bundles what backend-facing commands need.
type session struct {
	cfg   config.Config
	store *store.Store
	api   *backend.Client
}

func (s *session) Close() error {
	return s.store.Close()
}

// connect validates configuration, opens the store and builds a logged
// backend client.
func connect(cmd *cobra.Command) (*session, error) {
	cfg := config.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	st, err := openStore(cmd)
	if err != nil {
		return nil, err
	}

	api, err := backend.NewFromConfig(cfg, st.EventRepo())
	if err != nil {
		st.Close()
		return nil, err
	}
	return &session{cfg: cfg, store: st, api: api}, nil
}

// runApp builds dependencies and launches the TUI on the screen returned by
// initial. A configuration problem is shown as a blocking notice.
func runApp(cmd *cobra.Command, initial func(screens.Deps) screen.Screen) error {
	s, err := connect(cmd)
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			return app.Run(notice.New("Setup required", err.Error()))
		}
		return err
	}
	defer s.Close()

	repo := s.store.EventRepo()
	deps := screens.Deps{
		API:         s.api,
		Repo:        repo,
		Clock:       time.Now,
		RedirectURL: s.cfg.PaymentRedirectURL,
	}
	deps.Agent, deps.AgentErr = buildAgent(cmd.Context(), s.cfg, repo)

	return app.Run(initial(deps))
}

// buildAgent picks the tutor agent: the configured WebSocket agent, else an
// LLM provider from the environment. The error explains why chat is off.
func buildAgent(ctx context.Context, cfg config.Config, repo store.EventRepo) (chat.Agent, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var provider llm.Provider
	llmCfg, ok := llm.Resolve()
	if cfg.ChatURL == "" && ok {
		p, err := llm.NewProvider(ctx, llmCfg, repo)
		if err != nil {
			return nil, fmt.Errorf("LLM provider not configured: %w", err)
		}
		provider = p
	}
	return chat.NewAgent(cfg.ChatURL, cfg.IDToken, provider, llmCfg)
}
