package services

import (
  "context"
  "encoding/json"
  "fmt"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/types"
)

// EventService is the append-only audit trail for roadmap mutations. Rows
// are only ever inserted; snapshotting on top of the log is future work.
type EventService interface {
  LogEvent(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID, version int, eventType types.RoadmapEventType, payload map[string]any) (*types.RoadmapEvent, error)
}

type eventService struct {
  db        *gorm.DB
  log       *logger.Logger
  eventRepo repos.RoadmapEventRepo
}

func NewEventService(db *gorm.DB, baseLog *logger.Logger, eventRepo repos.RoadmapEventRepo) EventService {
  return &eventService{
    db:        db,
    log:       baseLog.With("service", "EventService"),
    eventRepo: eventRepo,
  }
}

func (es *eventService) LogEvent(ctx context.Context, tx *gorm.DB, roadmapID uuid.UUID, version int, eventType types.RoadmapEventType, payload map[string]any) (*types.RoadmapEvent, error) {
  if len(payload) == 0 {
    return nil, apierr.InvalidArgument("empty_event_payload", "Event payload must contain data")
  }

  raw, err := json.Marshal(payload)
  if err != nil {
    return nil, apierr.Internal("encode_event_payload", "encode event payload: %v", err)
  }

  event := &types.RoadmapEvent{
    RoadmapID: roadmapID,
    Version:   version,
    Type:      eventType,
    Payload:   datatypes.JSON(raw),
  }
  inserted, err := es.eventRepo.Insert(ctx, tx, event)
  if err != nil {
    es.log.Error("LogEvent failed", "error", err, "roadmap_id", roadmapID, "type", eventType)
    return nil, apierr.Internal("insert_event", "%v", fmt.Errorf("insert roadmap event: %w", err))
  }
  return inserted, nil
}
