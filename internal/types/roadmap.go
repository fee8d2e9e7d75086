package types

import (
  "encoding/json"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type RoadmapStatus string

const (
  RoadmapStatusDraft     RoadmapStatus = "DRAFT"
  RoadmapStatusPublished RoadmapStatus = "PUBLISHED"
  RoadmapStatusArchived  RoadmapStatus = "ARCHIVED"
)

type RoadmapCategory string

const (
  CategoryFrontend      RoadmapCategory = "Frontend"
  CategoryBackend       RoadmapCategory = "Backend"
  CategoryDevOps        RoadmapCategory = "DevOps"
  CategoryDataScience   RoadmapCategory = "Data Science"
  CategoryMobile        RoadmapCategory = "Mobile Development"
  CategoryFullStack     RoadmapCategory = "Full Stack"
  CategoryCybersecurity RoadmapCategory = "Cybersecurity"
  CategoryAI            RoadmapCategory = "Artificial Intelligence"
  CategoryGameDev       RoadmapCategory = "Game Development"
  CategoryCloud         RoadmapCategory = "Cloud Computing"
  CategorySecurity      RoadmapCategory = "Security"
)

func RoadmapCategories() []RoadmapCategory {
  return []RoadmapCategory{
    CategoryFrontend,
    CategoryBackend,
    CategoryDevOps,
    CategoryDataScience,
    CategoryMobile,
    CategoryFullStack,
    CategoryCybersecurity,
    CategoryAI,
    CategoryGameDev,
    CategoryCloud,
    CategorySecurity,
  }
}

type Viewport struct {
  X    float64 `json:"x"`
  Y    float64 `json:"y"`
  Zoom float64 `json:"zoom"`
}

type NodePosition struct {
  X float64 `json:"x"`
  Y float64 `json:"y"`
}

// RoadmapNodeData is the content side of a node; everything else on
// RoadmapNode is presentation state owned by the canvas.
type RoadmapNodeData struct {
  Title       string          `json:"title"`
  Description string          `json:"description,omitempty"`
  Tags        []string        `json:"tags,omitempty"`
  Resources   json.RawMessage `json:"resources,omitempty"`
}

type RoadmapNode struct {
  ID               string          `json:"id"`
  Type             string          `json:"type,omitempty"`
  Data             RoadmapNodeData `json:"data"`
  Position         *NodePosition   `json:"position,omitempty"`
  PositionAbsolute *NodePosition   `json:"positionAbsolute,omitempty"`
  Style            json.RawMessage `json:"style,omitempty"`
  Width            float64         `json:"width,omitempty"`
  Height           float64         `json:"height,omitempty"`
  Dragging         bool            `json:"dragging,omitempty"`
  Selected         bool            `json:"selected,omitempty"`
}

type RoadmapEdge struct {
  ID     string `json:"id,omitempty"`
  Source string `json:"source"`
  Target string `json:"target"`
}

type RoadmapData struct {
  Version  string        `json:"version"`
  Viewport Viewport      `json:"viewport"`
  Nodes    []RoadmapNode `json:"nodes"`
  Edges    []RoadmapEdge `json:"edges"`
}

func DefaultRoadmapData() RoadmapData {
  return RoadmapData{
    Version:  "1.0",
    Viewport: Viewport{X: 0, Y: 0, Zoom: 1},
    Nodes:    []RoadmapNode{},
    Edges:    []RoadmapEdge{},
  }
}

type Roadmap struct {
  ID          uuid.UUID                          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
  UserID      uuid.UUID                          `gorm:"type:uuid;not null;index" json:"user_id"`
  User        *User                              `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
  Title       string                             `gorm:"not null;column:title" json:"title"`
  Description string                             `gorm:"column:description" json:"description,omitempty"`
  Category    RoadmapCategory                    `gorm:"column:category;not null;index" json:"category"`
  Status      RoadmapStatus                      `gorm:"column:status;not null;default:'DRAFT';index" json:"status"`
  Data        datatypes.JSONType[RoadmapData]    `gorm:"column:data;type:jsonb" json:"data"`
  // GraphVersion is the compare-and-swap counter for graph saves. It is
  // mirrored into data.version as a string for clients.
  GraphVersion int64     `gorm:"column:graph_version;not null;default:1" json:"graph_version"`
  CreatedAt    time.Time `gorm:"not null;default:now()" json:"created_at"`
  UpdatedAt    time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Roadmap) TableName() string { return "roadmap" }
