package feed

import (
	"context"

	"github.com/pithecene-io/patchfeed/log"
	"github.com/pithecene-io/patchfeed/metrics"
	"github.com/pithecene-io/patchfeed/types"
)

// EventService is the narrow contract the pipeline needs from the
// update-event boundary. *steam.Client satisfies it.
type EventService interface {
	GameEvents(ctx context.Context, appID int64, filter types.FilterSpec) ([]types.UpdateEvent, error)
}

// Source fetches one game's update events with the fail-soft policy:
// any transport error, malformed payload or non-success status is logged
// and absorbed to an empty result. One game's transient failure must not
// abort aggregation across the rest of the library.
type Source struct {
	service   EventService
	logger    *log.Logger
	collector *metrics.Collector
}

// NewSource wraps an event service. logger may be nil; collector may be nil.
func NewSource(service EventService, logger *log.Logger, collector *metrics.Collector) *Source {
	if logger == nil {
		logger = log.Nop()
	}
	return &Source{service: service, logger: logger, collector: collector}
}

// Fetch returns the game's update events, each annotated with the game's
// display name and icon URL. Never fails: errors yield an empty result.
func (s *Source) Fetch(ctx context.Context, game types.OwnedGame, filter types.FilterSpec) []types.UpdateEvent {
	s.collector.IncGameQueried()

	events, err := s.service.GameEvents(ctx, game.AppID, filter)
	if err != nil {
		s.collector.IncGameFetchFailure()
		s.logger.Warn("event fetch failed, continuing without this game", map[string]any{
			"appid": game.AppID,
			"game":  game.Name,
			"error": err.Error(),
		})
		return nil
	}

	for i := range events {
		events[i].GameName = game.Name
		events[i].GameIcon = game.IconURL()
	}
	s.logger.Debug("events fetched", map[string]any{
		"appid":  game.AppID,
		"events": len(events),
	})
	return events
}
