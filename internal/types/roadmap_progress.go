package types

import (
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type ProgressStatus string

const (
  ProgressInProgress ProgressStatus = "IN_PROGRESS"
  ProgressCompleted  ProgressStatus = "COMPLETED"
  // ProgressArchived has no transition in the core; kept for data parity.
  ProgressArchived ProgressStatus = "ARCHIVED"
)

type NodeStatus string

const (
  NodePending    NodeStatus = "PENDING"
  NodeInProgress NodeStatus = "IN_PROGRESS"
  NodeCompleted  NodeStatus = "COMPLETED"
  NodeSkipped    NodeStatus = "SKIPPED"
)

func (s NodeStatus) Valid() bool {
  switch s {
  case NodePending, NodeInProgress, NodeCompleted, NodeSkipped:
    return true
  }
  return false
}

type NodeProgressState struct {
  Status    NodeStatus `json:"status"`
  UpdatedAt time.Time  `json:"updatedAt"`
}

type RoadmapNodeStates map[string]NodeProgressState

type RoadmapProgress struct {
  ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_roadmap,unique,priority:1" json:"user_id"`
  User      *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  RoadmapID uuid.UUID `gorm:"type:uuid;not null;index:idx_user_roadmap,unique,priority:2" json:"roadmap_id"`
  Roadmap   *Roadmap  `gorm:"constraint:OnDelete:CASCADE;foreignKey:RoadmapID;references:ID" json:"roadmap,omitempty"`
  Status    ProgressStatus `gorm:"column:status;not null;default:'IN_PROGRESS'" json:"status"`
  NodeStates datatypes.JSONType[RoadmapNodeStates] `gorm:"column:node_states;type:jsonb" json:"node_states"`
  // TotalNodesCount is snapshotted at enrollment and not resynced when the
  // roadmap later changes shape.
  TotalNodesCount int       `gorm:"column:total_nodes_count;not null;default:0" json:"total_nodes_count"`
  CreatedAt       time.Time `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt       time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (RoadmapProgress) TableName() string { return "roadmap_progress" }

// CompletedNodeCount scans the node states; the persisted status column is
// derived from this at write time.
func (p *RoadmapProgress) CompletedNodeCount() int {
  states := p.NodeStates.Data()
  count := 0
  for _, s := range states {
    if s.Status == NodeCompleted {
      count++
    }
  }
  return count
}

func (p *RoadmapProgress) ProgressPercentage() int {
  if p.TotalNodesCount <= 0 {
    return 0
  }
  completed := p.CompletedNodeCount()
  return int(float64(completed)/float64(p.TotalNodesCount)*100 + 0.5)
}
