package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/mini-postman/internal/domain"
	"github.com/samvad-hq/mini-postman/internal/logger"
	"github.com/samvad-hq/mini-postman/internal/storage"
	"github.com/samvad-hq/mini-postman/pkg/httpclient"
	"github.com/samvad-hq/mini-postman/pkg/publishers"
)

// EventPublisher receives a summary of every finished dispatch.
type EventPublisher interface {
	Publish(ctx context.Context, evt publishers.Event) (int, error)
}

// Stage names the step a dispatch is entering.
type Stage string

const (
	StageValidating  Stage = "validating"
	StageDispatching Stage = "dispatching"
)

// Service runs the validate, augment, dispatch, harvest flow for one draft at a time.
type Service struct {
	client   httpclient.Client
	store    storage.CredentialStore
	proxyURL string
	events   EventPublisher
	log      logger.Logger
	now      func() time.Time
	onStage  func(Stage)
	inFlight atomic.Bool
}

// NewService wires a dispatcher against the proxy endpoint at proxyURL.
// events may be nil.
func NewService(client httpclient.Client, store storage.CredentialStore, proxyURL string, events EventPublisher, log logger.Logger) (*Service, error) {
	if client == nil {
		return nil, fmt.Errorf("http client must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("credential store must not be nil")
	}
	if strings.TrimSpace(proxyURL) == "" {
		return nil, fmt.Errorf("proxy url must not be empty")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Service{
		client:   client,
		store:    store,
		proxyURL: strings.TrimSpace(proxyURL),
		events:   events,
		log:      log,
		now:      time.Now,
	}, nil
}

// OnStage registers fn to be called as Send enters each stage. Not safe to
// call concurrently with Send.
func (s *Service) OnStage(fn func(Stage)) {
	s.onStage = fn
}

func (s *Service) enter(stage Stage) {
	if s.onStage != nil {
		s.onStage(stage)
	}
}

// Busy reports whether a dispatch is currently in flight.
func (s *Service) Busy() bool {
	return s.inFlight.Load()
}

// LoggedIn reports whether a credential is currently stored.
func (s *Service) LoggedIn() bool {
	token, err := s.store.Token()
	return err == nil && token != ""
}

// Send validates the draft, forwards it through the proxy and returns the
// proxy's answer. Failures are *InvalidInputError, *DispatchError or
// ErrDispatchInFlight.
func (s *Service) Send(ctx context.Context, draft domain.RequestDraft) (domain.DispatchResult, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return domain.DispatchResult{}, ErrDispatchInFlight
	}
	defer s.inFlight.Store(false)

	start := s.now()
	method := draft.Method
	if method == "" {
		method = domain.MethodGet
	}

	s.enter(StageValidating)
	headers, body, err := ParseDraft(draft.RawHeaders, draft.RawBody)
	if err != nil {
		s.log.WarnObj("draft rejected", "draft_error", map[string]any{
			"method": method.String(),
			"url":    draft.URL,
			"error":  errors.Unwrap(err).Error(),
		})
		s.notify(ctx, publishers.NewEvent(method.String(), draft.URL, publishers.OutcomeInvalidInput, nil, s.now().Sub(start)), false)
		return domain.DispatchResult{}, err
	}

	token, err := s.store.Token()
	if err != nil {
		s.log.WarnObj("credential read failed; sending without authorization", "credential_error", err.Error())
		token = ""
	}

	envelope := domain.ProxyRequest{
		URL:     draft.URL,
		Method:  method.String(),
		Headers: AugmentHeaders(headers, token),
		Body:    body,
	}

	s.enter(StageDispatching)
	result, err := s.dispatch(ctx, envelope)
	if err != nil {
		s.log.ErrorObj("dispatch failed", "dispatch_error", map[string]any{
			"method": envelope.Method,
			"url":    envelope.URL,
			"error":  errors.Unwrap(err).Error(),
		})
		s.notify(ctx, publishers.NewEvent(envelope.Method, envelope.URL, publishers.OutcomeDispatchErr, nil, s.now().Sub(start)), false)
		return domain.DispatchResult{}, err
	}

	captured := s.harvest(result.Data)

	elapsed := s.now().Sub(start)
	s.log.InfoObj("dispatch completed", "dispatch_meta", map[string]any{
		"method":              envelope.Method,
		"url":                 envelope.URL,
		"status":              result.StatusCode,
		"authorized":          token != "",
		"credential_captured": captured,
		"elapsed_ms":          elapsed.Milliseconds(),
	})
	s.notify(ctx, publishers.NewEvent(envelope.Method, envelope.URL, publishers.OutcomeSuccess, result.StatusCode, elapsed), captured)
	return result, nil
}

// dispatch performs the single proxy round trip.
func (s *Service) dispatch(ctx context.Context, envelope domain.ProxyRequest) (domain.DispatchResult, error) {
	resp, err := s.client.PostJSON(ctx, s.proxyURL, nil, envelope)
	if err != nil {
		return domain.DispatchResult{}, &DispatchError{Err: fmt.Errorf("post to proxy: %w", err)}
	}

	result, err := decodeProxyResponse(resp.Body())
	if err != nil {
		return domain.DispatchResult{}, &DispatchError{Err: fmt.Errorf("proxy responded %d: %w", resp.StatusCode(), err)}
	}
	return result, nil
}

// decodeProxyResponse requires a JSON object. A missing or non-integer
// status leaves StatusCode nil.
func decodeProxyResponse(raw []byte) (domain.DispatchResult, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.DispatchResult{}, fmt.Errorf("decode proxy response: %w", err)
	}
	if envelope == nil {
		return domain.DispatchResult{}, fmt.Errorf("decode proxy response: expected a JSON object")
	}

	result := domain.DispatchResult{Raw: append(json.RawMessage(nil), raw...)}

	if status, ok := envelope["status"]; ok {
		var f float64
		if err := json.Unmarshal(status, &f); err == nil && f == math.Trunc(f) {
			code := int(f)
			result.StatusCode = &code
		}
	}
	if data, ok := envelope["data"]; ok {
		if err := json.Unmarshal(data, &result.Data); err != nil {
			return domain.DispatchResult{}, fmt.Errorf("decode proxy data: %w", err)
		}
	}
	return result, nil
}

// harvest persists a credential found in data. Every failure here is
// swallowed; it reports whether a new credential was stored.
func (s *Service) harvest(data any) bool {
	token, ok := HarvestToken(data)
	if !ok {
		return false
	}
	if err := s.store.SetToken(token); err != nil {
		s.log.WarnObj("credential capture not persisted", "credential_error", err.Error())
		return false
	}
	s.log.InfoObj("credential captured", "credential_meta", map[string]any{"length": len(token)})
	return true
}

func (s *Service) notify(ctx context.Context, evt publishers.Event, captured bool) {
	if s.events == nil {
		return
	}
	evt.CredentialCaptured = captured
	if _, err := s.events.Publish(ctx, evt); err != nil {
		s.log.WarnObj("dispatch event not delivered", "event_error", map[string]any{
			"event_id": evt.ID,
			"error":    err.Error(),
		})
	}
}
