// Package api is the seam the out-of-scope HTTP layer calls into: publish
// the three ingress events onto the bus, and read mission/reward state back
// out of the Event Store. It deliberately contains no routing, middleware,
// or request/response DTO shaping — those stay out of scope.
package api

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/AccelByte/mission-progression-service/internal/bus"
	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/router"
	"github.com/AccelByte/mission-progression-service/internal/store"
	"github.com/google/uuid"
)

// Service is the contract an HTTP (or any other transport) layer calls into.
type Service interface {
	// PublishLogin, PublishLaunch and PublishPlay are fire-and-forget:
	// they publish onto the bus and return as soon as the publish attempt
	// is dispatched, logging (but not surfacing) an async publish failure.
	PublishLogin(ctx context.Context, userID string) error
	PublishLaunch(ctx context.Context, userID, gameName string) error
	PublishPlay(ctx context.Context, userID, gameName string, score int) error

	// GetMissions returns the user's currently active cycle, or an empty
	// slice if no cycle is currently open for them.
	GetMissions(ctx context.Context, userID string) ([]domain.Mission, error)
	// GetRewards returns every reward ever distributed to the user.
	GetRewards(ctx context.Context, userID string) ([]domain.Reward, error)

	// EnsureUser and EnsureGame are existence checks the transport layer
	// uses before accepting an ingress request for an unknown entity.
	EnsureUser(ctx context.Context, userID string) (*domain.User, error)
	EnsureGame(ctx context.Context, gameName string) (*domain.Game, error)
}

type service struct {
	store     store.EventStore
	publisher bus.Publisher
	logger    *slog.Logger
}

// New constructs the api.Service for whatever transport layer the
// deployment wires in (cmd/worker does not construct one) and for tests
// that want to drive the pipeline end to end without a live bus subscriber.
func New(s store.EventStore, publisher bus.Publisher, logger *slog.Logger) Service {
	return &service{store: s, publisher: publisher, logger: logger}
}

func (svc *service) PublishLogin(ctx context.Context, userID string) error {
	evt := router.LoginEvent{EventID: uuid.NewString(), UserID: userID, LoggedInAt: clock.Now()}
	payload, err := json.Marshal(evt)
	if err != nil {
		return dberr.ValidationFailed("login event", err.Error())
	}
	svc.publisher.PublishAsync(ctx, bus.TopicMissionLogin, userID, evt.EventID, payload, svc.logPublishFailure(evt.EventID))
	return nil
}

func (svc *service) PublishLaunch(ctx context.Context, userID, gameName string) error {
	evt := router.GameLaunchEvent{EventID: uuid.NewString(), UserID: userID, GameName: gameName, LaunchedAt: clock.Now()}
	payload, err := json.Marshal(evt)
	if err != nil {
		return dberr.ValidationFailed("game-launch event", err.Error())
	}
	svc.publisher.PublishAsync(ctx, bus.TopicMissionGameLaunch, userID, evt.EventID, payload, svc.logPublishFailure(evt.EventID))
	return nil
}

func (svc *service) PublishPlay(ctx context.Context, userID, gameName string, score int) error {
	evt := router.GamePlayEvent{EventID: uuid.NewString(), UserID: userID, GameName: gameName, Score: score, PlayedAt: clock.Now()}
	payload, err := json.Marshal(evt)
	if err != nil {
		return dberr.ValidationFailed("game-play event", err.Error())
	}
	svc.publisher.PublishAsync(ctx, bus.TopicMissionGamePlay, userID, evt.EventID, payload, svc.logPublishFailure(evt.EventID))
	return nil
}

func (svc *service) logPublishFailure(eventID string) func(error) {
	return func(err error) {
		if err != nil {
			svc.logger.Error("ingress publish failed", "event_id", eventID, "error", err)
		}
	}
}

func (svc *service) GetMissions(ctx context.Context, userID string) ([]domain.Mission, error) {
	missions, err := svc.store.ActiveMissions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if missions == nil {
		return []domain.Mission{}, nil
	}
	return missions, nil
}

func (svc *service) GetRewards(ctx context.Context, userID string) ([]domain.Reward, error) {
	return svc.store.RewardsForUser(ctx, userID)
}

func (svc *service) EnsureUser(ctx context.Context, userID string) (*domain.User, error) {
	return svc.store.GetUser(ctx, userID)
}

func (svc *service) EnsureGame(ctx context.Context, gameName string) (*domain.Game, error) {
	return svc.store.EnsureGame(ctx, gameName)
}
