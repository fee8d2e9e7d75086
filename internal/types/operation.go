package types

type RoadmapOperationType string

const (
  OpNodeCreated RoadmapOperationType = "NODE_CREATED"
  OpNodeUpdated RoadmapOperationType = "NODE_UPDATED"
  OpNodeDeleted RoadmapOperationType = "NODE_DELETED"
  OpNodeMoved   RoadmapOperationType = "NODE_MOVED"
  OpEdgeCreated RoadmapOperationType = "EDGE_CREATED"
  OpEdgeDeleted RoadmapOperationType = "EDGE_DELETED"
)

// RoadmapOperation is one graph mutation request. Node carries the payload
// for node operations, Edge for edge operations; NodeID addresses the target
// of updates, moves and deletes.
type RoadmapOperation struct {
  Type   RoadmapOperationType `json:"type"`
  NodeID string               `json:"nodeId,omitempty"`
  Node   *RoadmapNode         `json:"node,omitempty"`
  Edge   *RoadmapEdge         `json:"edge,omitempty"`
}
