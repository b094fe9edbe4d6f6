package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/mini-postman/internal/config"
	"github.com/samvad-hq/mini-postman/internal/dispatcher"
	"github.com/samvad-hq/mini-postman/internal/domain"
	"github.com/samvad-hq/mini-postman/internal/logger"
	"github.com/samvad-hq/mini-postman/internal/presenter"
	"github.com/samvad-hq/mini-postman/internal/storage"
	"github.com/samvad-hq/mini-postman/pkg/httpclient"
	"github.com/samvad-hq/mini-postman/pkg/publishers"
)

// Session is the runtime behind one interactive or one-shot run. It owns the
// credential store, the event sinks, the dispatcher and the UI state machine.
type Session struct {
	cfg     *config.Config
	store   storage.CredentialStore
	fanout  *publishers.Fanout
	service *dispatcher.Service
	machine *presenter.Machine
	log     logger.Logger
}

// NewSession builds a session from config.
func NewSession(ctx context.Context, cfg *config.Config, log logger.Logger) (*Session, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.CredentialStore, cfg.BBoltPath, storage.Options{Key: cfg.CredentialKey})
	if err != nil {
		return nil, fmt.Errorf("init credential store: %w", err)
	}
	log.InfoObj("credential store initialized", "storage_config", map[string]any{
		"type": cfg.CredentialStore,
		"path": cfg.BBoltPath,
		"key":  cfg.CredentialKey,
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client := httpclient.NewRestyClient(cfg.DispatchTimeout)
	service, err := dispatcher.NewService(client, store, cfg.ProxyURL, fanout, log)
	if err != nil {
		_ = fanout.Close()
		_ = store.Close()
		return nil, fmt.Errorf("init dispatcher: %w", err)
	}

	machine := presenter.NewMachine()
	service.OnStage(machine.Observe)

	log.InfoObj("session ready", "session_meta", map[string]any{
		"proxy_url":        cfg.ProxyURL,
		"dispatch_timeout": cfg.DispatchTimeout.String(),
		"publishers_count": fanout.Size(),
	})

	return &Session{
		cfg:     cfg,
		store:   store,
		fanout:  fanout,
		service: service,
		machine: machine,
		log:     log,
	}, nil
}

// buildFanout loads the optional publishers file. An empty path yields an
// empty fanout.
func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if strings.TrimSpace(path) == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabledPublishers := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run sends draft and returns the view to render. It never returns an error;
// failures are carried in the view.
func (s *Session) Run(ctx context.Context, draft domain.RequestDraft) presenter.View {
	result, err := s.service.Send(ctx, draft)
	if errors.Is(err, dispatcher.ErrDispatchInFlight) {
		// the in-flight dispatch still owns the state machine
		return presenter.Failure(err)
	}

	view := presenter.Present(result, err)
	if ferr := s.machine.Finish(view); ferr != nil {
		s.log.WarnObj("presenter state out of sync", "state_error", ferr.Error())
	}
	return view
}

// Busy reports whether a dispatch is in flight.
func (s *Session) Busy() bool { return s.service.Busy() }

// LoggedIn reports whether a credential is stored.
func (s *Session) LoggedIn() bool { return s.service.LoggedIn() }

// State returns the presenter state.
func (s *Session) State() presenter.State { return s.machine.State() }

// ProxyURL returns the endpoint drafts are forwarded through.
func (s *Session) ProxyURL() string { return s.cfg.ProxyURL }

// Close releases the event sinks and the credential store.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if err := s.fanout.Close(); err != nil {
		s.log.ErrorObj("publishers close failed", "error", err)
		errs = append(errs, err)
	}
	if err := s.store.Close(); err != nil {
		s.log.ErrorObj("storage close failed", "error", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
