package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/AccelByte/mission-progression-service/internal/bus"
	"github.com/AccelByte/mission-progression-service/internal/clock"
	"github.com/AccelByte/mission-progression-service/internal/config"
	"github.com/AccelByte/mission-progression-service/internal/dberr"
	"github.com/AccelByte/mission-progression-service/internal/domain"
	"github.com/AccelByte/mission-progression-service/internal/idempotency"
	"github.com/AccelByte/mission-progression-service/internal/mission"
	"github.com/AccelByte/mission-progression-service/internal/outbox"
	"github.com/AccelByte/mission-progression-service/internal/reward"
	"github.com/AccelByte/mission-progression-service/internal/store"
)

// Router wires the Event Store, Idempotency Keeper and Bus together into
// the handlers registered with a bus.Subscriber.
type Router struct {
	Store     store.EventStore
	Keeper    idempotency.Keeper
	Publisher bus.Publisher
	Tunables  *config.Tunables
	Logger    *slog.Logger
}

const consumerGroup = "mission-service"

// recordFact is the only thing that differs between the three ingress
// handlers: how the raw event is turned into a durable fact and which
// mission type it might complete. Everything else — dedup, cycle
// initialization, completion check, cascading publish — is identical,
// which is why it is lifted into runIngress instead of repeated per topic.
type recordFact func(ctx context.Context, s store.EventStore, userID, eventID string) (bool, error)

// runIngress is the shared consumer routine for the three ingress topics.
func (r *Router) runIngress(dedupPrefix string, userID, eventID string, record recordFact, t domain.MissionType) error {
	ctx := context.Background()
	dedupKey := idempotency.DedupKey(dedupPrefix, eventID)

	first, err := r.Keeper.MarkProcessed(ctx, dedupKey, r.Tunables.DedupTTL.Value())
	if err != nil {
		return err
	}
	if !first {
		r.Logger.Info("duplicate event, skipping", "event_id", eventID, "topic", dedupPrefix)
		return nil
	}

	if err := r.process(ctx, userID, eventID, record, t); err != nil {
		if dberr.IsKind(err, dberr.KindTransient) {
			if releaseErr := r.Keeper.Release(ctx, dedupKey); releaseErr != nil {
				r.Logger.Error("failed to release dedup key after transient failure", "event_id", eventID, "error", releaseErr)
			}
			return err
		}
		if dberr.IsKind(err, dberr.KindInvariant) {
			r.Logger.Error("invariant violation processing event", "event_id", eventID, "error", err)
		}
		return nil
	}

	return nil
}

func (r *Router) process(ctx context.Context, userID, eventID string, record recordFact, t domain.MissionType) error {
	if err := mission.EnsureActiveCycle(ctx, r.Store, r.Keeper, userID, mission.InitConfig{
		LockTTL:      r.Tunables.InitLockTTL.Value(),
		WaitTimeout:  r.Tunables.InitWaitTimeout.Value(),
		PollInterval: r.Tunables.InitPollInterval.Value(),
	}); err != nil {
		return err
	}

	if _, err := record(ctx, r.Store, userID, eventID); err != nil {
		return err
	}

	won, err := mission.CheckAndComplete(ctx, r.Store, userID, t)
	if err != nil {
		if dberr.IsKind(err, dberr.KindLogicalNoOp) {
			return nil
		}
		return err
	}
	if !won {
		return nil
	}

	return r.publishMissionCompleted(ctx, userID, t)
}

func (r *Router) publishMissionCompleted(ctx context.Context, userID string, t domain.MissionType) error {
	evt := MissionCompletedEvent{
		EventID:     idempotency.DedupKey("mission-completed", userID) + ":" + string(t) + ":" + clock.Now().Format(time.RFC3339Nano),
		UserID:      userID,
		MissionType: string(t),
		CompletedAt: clock.Now(),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return dberr.New(dberr.KindInvariant, dberr.CodeValidationFailed, "failed to marshal mission-completed event", err)
	}

	publishErr := r.Publisher.PublishSync(ctx, bus.TopicMissionCompleted, userID, evt.EventID, payload)
	if publishErr == nil {
		return nil
	}

	r.Logger.Warn("mission-completed publish failed, enqueuing to outbox", "event_id", evt.EventID, "error", publishErr)
	return outbox.Enqueue(ctx, r.Store, evt.EventID, bus.TopicMissionCompleted, payload,
		r.Tunables.OutboxMaxRetries, r.Tunables.OutboxBackoff.Value(), publishErr)
}

// HandleLogin is the bus.Handler for mission-login-event.
func (r *Router) HandleLogin(ctx context.Context, eventID string, payload []byte) error {
	var evt LoginEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		r.Logger.Error("failed to decode login event, dropping", "event_id", eventID, "error", err)
		return nil
	}
	return r.runIngress("login", evt.UserID, evt.EventID, recordLogin(evt.LoggedInAt), domain.MissionLoginConsecutive)
}

// HandleGameLaunch is the bus.Handler for mission-game-launch-event.
func (r *Router) HandleGameLaunch(ctx context.Context, eventID string, payload []byte) error {
	var evt GameLaunchEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		r.Logger.Error("failed to decode launch event, dropping", "event_id", eventID, "error", err)
		return nil
	}
	return r.runIngress("game-launch", evt.UserID, evt.EventID, recordLaunch(evt.GameName, evt.LaunchedAt), domain.MissionLaunchDistinct)
}

// HandleGamePlay is the bus.Handler for mission-game-play-event.
func (r *Router) HandleGamePlay(ctx context.Context, eventID string, payload []byte) error {
	var evt GamePlayEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		r.Logger.Error("failed to decode play event, dropping", "event_id", eventID, "error", err)
		return nil
	}
	return r.runIngress("game-play", evt.UserID, evt.EventID, recordPlay(evt.GameName, evt.Score, evt.PlayedAt), domain.MissionPlayScoreOver)
}

func recordLogin(loggedInAt time.Time) recordFact {
	return func(ctx context.Context, s store.EventStore, userID, eventID string) (bool, error) {
		return s.RecordLogin(ctx, userID, loggedInAt, eventID)
	}
}

func recordLaunch(gameName string, launchedAt time.Time) recordFact {
	return func(ctx context.Context, s store.EventStore, userID, eventID string) (bool, error) {
		game, err := s.EnsureGame(ctx, gameName)
		if err != nil {
			return false, err
		}
		return s.RecordLaunch(ctx, userID, game.ID, eventID, launchedAt)
	}
}

func recordPlay(gameName string, score int, playedAt time.Time) recordFact {
	return func(ctx context.Context, s store.EventStore, userID, eventID string) (bool, error) {
		game, err := s.EnsureGame(ctx, gameName)
		if err != nil {
			return false, err
		}
		return s.RecordPlaySession(ctx, userID, game.ID, eventID, score, playedAt)
	}
}

// HandleMissionCompleted is the bus.Handler for mission-completed-event.
// Unlike the ingress handlers, failures here are logged and swallowed
// rather than propagated: redelivering a mission-completed event cannot
// un-complete a mission, and the reward grant is already idempotent, so
// there is nothing a nack would accomplish beyond needless retries.
func (r *Router) HandleMissionCompleted(ctx context.Context, eventID string, payload []byte) error {
	var evt MissionCompletedEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		r.Logger.Error("failed to decode mission-completed event", "event_id", eventID, "error", err)
		return nil
	}

	dedupKey := idempotency.DedupKey("mission-completed", evt.EventID)
	first, err := r.Keeper.MarkProcessed(ctx, dedupKey, r.Tunables.DedupTTL.Value())
	if err != nil {
		r.Logger.Error("idempotency check failed for mission-completed event", "event_id", evt.EventID, "error", err)
		return nil
	}
	if !first {
		return nil
	}

	granted, err := reward.Distribute(ctx, r.Store, evt.UserID, r.Tunables.RewardPoints)
	if err != nil {
		r.Logger.Error("reward distribution failed", "user_id", evt.UserID, "error", err)
		return nil
	}
	if granted {
		r.Logger.Info("reward distributed", "user_id", evt.UserID, "points", r.Tunables.RewardPoints)
	}
	return nil
}

// Subscribe registers all four handlers on sub.
func (r *Router) Subscribe(ctx context.Context, sub bus.Subscriber) ([]func(), error) {
	var unsubs []func()

	register := func(topic bus.Topic, handler bus.Handler) error {
		unsub, err := sub.Subscribe(ctx, topic, consumerGroup, handler)
		if err != nil {
			return err
		}
		unsubs = append(unsubs, unsub)
		return nil
	}

	if err := register(bus.TopicMissionLogin, r.HandleLogin); err != nil {
		return unsubs, err
	}
	if err := register(bus.TopicMissionGameLaunch, r.HandleGameLaunch); err != nil {
		return unsubs, err
	}
	if err := register(bus.TopicMissionGamePlay, r.HandleGamePlay); err != nil {
		return unsubs, err
	}
	if err := register(bus.TopicMissionCompleted, r.HandleMissionCompleted); err != nil {
		return unsubs, err
	}

	return unsubs, nil
}
