package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type RoadmapEventType string

const (
  EventNodeCreated     RoadmapEventType = "NODE_CREATED"
  EventNodeUpdated     RoadmapEventType = "NODE_UPDATED"
  EventNodeDeleted     RoadmapEventType = "NODE_DELETED"
  EventEdgeCreated     RoadmapEventType = "EDGE_CREATED"
  EventEdgeDeleted     RoadmapEventType = "EDGE_DELETED"
  EventRoadmapSaved    RoadmapEventType = "ROADMAP_SAVED"
  EventSnapshotCreated RoadmapEventType = "SNAPSHOT_CREATED"
)

// RoadmapEvent rows are append-only: inserted once, never updated.
type RoadmapEvent struct {
  ID        uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  RoadmapID uuid.UUID        `gorm:"type:uuid;not null;index" json:"roadmap_id"`
  Roadmap   *Roadmap         `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoadmapID;references:ID" json:"roadmap,omitempty"`
  Version   int              `gorm:"column:version;not null" json:"version"`
  Type      RoadmapEventType `gorm:"column:type;not null;index" json:"type"`
  Payload   datatypes.JSON   `gorm:"column:payload;type:jsonb" json:"payload"`
  CreatedAt time.Time        `gorm:"not null;default:now()" json:"created_at"`
}

func (RoadmapEvent) TableName() string { return "roadmap_event" }
