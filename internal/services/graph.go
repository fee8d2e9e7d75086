package services

import (
  "context"
  "strconv"

  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"

  "github.com/pathforge/pathforge-backend/internal/apierr"
  "github.com/pathforge/pathforge-backend/internal/logger"
  "github.com/pathforge/pathforge-backend/internal/repos"
  "github.com/pathforge/pathforge-backend/internal/sse"
  "github.com/pathforge/pathforge-backend/internal/types"
)

// OperationResult mirrors the shape returned to the client: a human message
// for the last operation applied and that operation's resulting payload.
type OperationResult struct {
  Message string `json:"message"`
  Data    any    `json:"data"`
}

// GraphService applies ordered mutations to a roadmap's node/edge document.
// Every save is a compare-and-swap on the roadmap's graph version, so a
// concurrent writer surfaces as Conflict instead of silently losing updates.
type GraphService interface {
  ApplyOperations(ctx context.Context, userID, roadmapID uuid.UUID, operations []types.RoadmapOperation) (*OperationResult, error)
  AddNode(ctx context.Context, userID, roadmapID uuid.UUID, node types.RoadmapNode) (*types.RoadmapNode, error)
  UpdateNode(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, node types.RoadmapNode) (*types.RoadmapNodeData, error)
  DeleteNode(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string) (*types.RoadmapNodeData, error)
}

type graphService struct {
  db           *gorm.DB
  log          *logger.Logger
  roadmapRepo  repos.RoadmapRepo
  eventService EventService
  hub          *sse.SSEHub
}

func NewGraphService(
  db *gorm.DB,
  baseLog *logger.Logger,
  roadmapRepo repos.RoadmapRepo,
  eventService EventService,
  hub *sse.SSEHub,
) GraphService {
  return &graphService{
    db:           db,
    log:          baseLog.With("service", "GraphService"),
    roadmapRepo:  roadmapRepo,
    eventService: eventService,
    hub:          hub,
  }
}

func (gs *graphService) ApplyOperations(ctx context.Context, userID, roadmapID uuid.UUID, operations []types.RoadmapOperation) (*OperationResult, error) {
  if len(operations) == 0 {
    return nil, apierr.InvalidArgument("no_operations", "No operation provided")
  }

  var result OperationResult
  var version int64
  for _, op := range operations {
    res, v, err := gs.applyOne(ctx, userID, roadmapID, op)
    if err != nil {
      return nil, err
    }
    result = *res
    version = v
  }

  // One audit event per batch: the batch size plus the last operation's
  // payload, stamped with the real post-mutation graph version.
  payload := map[string]any{
    "operations": len(operations),
    "result":     result.Data,
  }
  if _, err := gs.eventService.LogEvent(ctx, nil, roadmapID, int(version), types.EventRoadmapSaved, payload); err != nil {
    return nil, err
  }

  if gs.hub != nil {
    gs.hub.Broadcast(sse.SSEMessage{
      Channel: userID.String(),
      Event:   sse.SSEEventRoadmapSaved,
      Data: map[string]any{
        "roadmap_id": roadmapID,
        "version":    version,
        "message":    result.Message,
      },
    })
  }

  return &result, nil
}

func (gs *graphService) applyOne(ctx context.Context, userID, roadmapID uuid.UUID, op types.RoadmapOperation) (*OperationResult, int64, error) {
  switch op.Type {
  case types.OpNodeCreated:
    if op.Node == nil {
      return nil, 0, apierr.InvalidArgument("node_required", "Node payload is required")
    }
    node, version, err := gs.addNode(ctx, userID, roadmapID, *op.Node)
    if err != nil {
      return nil, 0, err
    }
    return &OperationResult{Message: "Node added successfully", Data: node}, version, nil

  case types.OpNodeUpdated:
    if op.Node == nil {
      return nil, 0, apierr.InvalidArgument("node_required", "Node payload is required")
    }
    data, version, err := gs.updateNode(ctx, userID, roadmapID, op.NodeID, *op.Node)
    if err != nil {
      return nil, 0, err
    }
    return &OperationResult{Message: "Node updated successfully", Data: data}, version, nil

  case types.OpNodeDeleted:
    data, version, err := gs.deleteNode(ctx, userID, roadmapID, op.NodeID)
    if err != nil {
      return nil, 0, err
    }
    return &OperationResult{Message: "Node deleted successfully", Data: data}, version, nil

  case types.OpNodeMoved:
    if op.Node == nil {
      return nil, 0, apierr.InvalidArgument("node_required", "Node payload is required")
    }
    data, version, err := gs.moveNode(ctx, userID, roadmapID, op.NodeID, *op.Node)
    if err != nil {
      return nil, 0, err
    }
    return &OperationResult{Message: "Node moved successfully", Data: data}, version, nil

  case types.OpEdgeCreated:
    if op.Edge == nil {
      return nil, 0, apierr.InvalidArgument("edge_required", "Edge payload is required")
    }
    edge, version, err := gs.addEdge(ctx, userID, roadmapID, *op.Edge)
    if err != nil {
      return nil, 0, err
    }
    return &OperationResult{Message: "Edge added successfully", Data: edge}, version, nil

  case types.OpEdgeDeleted:
    if op.Edge == nil {
      return nil, 0, apierr.InvalidArgument("edge_required", "Edge payload is required")
    }
    edge, version, err := gs.deleteEdge(ctx, userID, roadmapID, *op.Edge)
    if err != nil {
      return nil, 0, err
    }
    return &OperationResult{Message: "Edge deleted successfully", Data: edge}, version, nil

  default:
    return nil, 0, apierr.InvalidArgument("unknown_operation", "Unknown operation type")
  }
}

// mutate runs one read-modify-write cycle against the owner-scoped roadmap.
// The returned version is the graph version after the save.
func (gs *graphService) mutate(ctx context.Context, userID, roadmapID uuid.UUID, fn func(data *types.RoadmapData) (any, error)) (any, int64, error) {
  roadmap, err := gs.roadmapRepo.GetByIDAndUserID(ctx, nil, roadmapID, userID)
  if err != nil {
    return nil, 0, apierr.Internal("load_roadmap", "load roadmap: %v", err)
  }
  if roadmap == nil {
    return nil, 0, apierr.NotFound("roadmap_not_found", "Roadmap not found")
  }

  data := roadmap.Data.Data()
  result, err := fn(&data)
  if err != nil {
    return nil, 0, err
  }

  expected := roadmap.GraphVersion
  roadmap.GraphVersion = expected + 1
  data.Version = strconv.FormatInt(roadmap.GraphVersion, 10)
  roadmap.Data = datatypes.NewJSONType(data)

  rows, err := gs.roadmapRepo.SaveGraph(ctx, nil, roadmap, expected)
  if err != nil {
    return nil, 0, apierr.Internal("save_graph", "save graph: %v", err)
  }
  if rows == 0 {
    return nil, 0, apierr.Conflict("concurrent_update", "Roadmap was modified concurrently")
  }
  return result, roadmap.GraphVersion, nil
}

func (gs *graphService) addNode(ctx context.Context, userID, roadmapID uuid.UUID, node types.RoadmapNode) (*types.RoadmapNode, int64, error) {
  if node.ID == "" {
    return nil, 0, apierr.InvalidArgument("node_id_required", "Node id is required")
  }
  result, version, err := gs.mutate(ctx, userID, roadmapID, func(data *types.RoadmapData) (any, error) {
    if findNode(data.Nodes, node.ID) != nil {
      return nil, apierr.Conflict("node_exists", "Node already exists")
    }
    // The node is appended verbatim; no default fields are populated.
    data.Nodes = append(data.Nodes, node)
    return &node, nil
  })
  if err != nil {
    return nil, 0, err
  }
  return result.(*types.RoadmapNode), version, nil
}

func (gs *graphService) updateNode(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, payload types.RoadmapNode) (*types.RoadmapNodeData, int64, error) {
  result, version, err := gs.mutate(ctx, userID, roadmapID, func(data *types.RoadmapData) (any, error) {
    node := findNode(data.Nodes, nodeID)
    if node == nil {
      return nil, apierr.NotFound("node_not_found", "Node not found")
    }
    // Enumerated fields are overwritten from the payload; anything else on
    // the stored node is left untouched.
    node.Data.Title = payload.Data.Title
    node.Data.Description = payload.Data.Description
    node.Data.Tags = payload.Data.Tags
    node.Data.Resources = payload.Data.Resources
    node.Type = payload.Type
    node.Style = payload.Style
    node.Width = payload.Width
    node.Height = payload.Height
    node.Dragging = payload.Dragging
    node.Selected = payload.Selected
    node.Position = payload.Position
    node.PositionAbsolute = payload.PositionAbsolute
    return &node.Data, nil
  })
  if err != nil {
    return nil, 0, err
  }
  return result.(*types.RoadmapNodeData), version, nil
}

func (gs *graphService) deleteNode(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string) (*types.RoadmapNodeData, int64, error) {
  result, version, err := gs.mutate(ctx, userID, roadmapID, func(data *types.RoadmapData) (any, error) {
    node := findNode(data.Nodes, nodeID)
    if node == nil {
      return nil, apierr.NotFound("node_not_found", "Node not found")
    }
    removed := node.Data

    nodes := data.Nodes[:0]
    for _, n := range data.Nodes {
      if n.ID != nodeID {
        nodes = append(nodes, n)
      }
    }
    data.Nodes = nodes

    edges := data.Edges[:0]
    for _, e := range data.Edges {
      if e.Source != nodeID && e.Target != nodeID {
        edges = append(edges, e)
      }
    }
    data.Edges = edges
    return &removed, nil
  })
  if err != nil {
    return nil, 0, err
  }
  return result.(*types.RoadmapNodeData), version, nil
}

func (gs *graphService) moveNode(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, payload types.RoadmapNode) (*types.RoadmapNodeData, int64, error) {
  result, version, err := gs.mutate(ctx, userID, roadmapID, func(data *types.RoadmapData) (any, error) {
    node := findNode(data.Nodes, nodeID)
    if node == nil {
      return nil, apierr.NotFound("node_not_found", "Node not found")
    }
    node.Position = payload.Position
    node.PositionAbsolute = payload.PositionAbsolute
    return &node.Data, nil
  })
  if err != nil {
    return nil, 0, err
  }
  return result.(*types.RoadmapNodeData), version, nil
}

func (gs *graphService) addEdge(ctx context.Context, userID, roadmapID uuid.UUID, edge types.RoadmapEdge) (*types.RoadmapEdge, int64, error) {
  if edge.Source == "" || edge.Target == "" {
    return nil, 0, apierr.InvalidArgument("edge_endpoints_required", "Edge source and target are required")
  }
  result, version, err := gs.mutate(ctx, userID, roadmapID, func(data *types.RoadmapData) (any, error) {
    if findNode(data.Nodes, edge.Source) == nil || findNode(data.Nodes, edge.Target) == nil {
      return nil, apierr.InvalidArgument("edge_endpoint_missing", "Edge endpoints must reference existing nodes")
    }
    for _, e := range data.Edges {
      if e.Source == edge.Source && e.Target == edge.Target {
        return nil, apierr.Conflict("edge_exists", "Edge already exists")
      }
    }
    data.Edges = append(data.Edges, edge)
    return &edge, nil
  })
  if err != nil {
    return nil, 0, err
  }
  return result.(*types.RoadmapEdge), version, nil
}

func (gs *graphService) deleteEdge(ctx context.Context, userID, roadmapID uuid.UUID, edge types.RoadmapEdge) (*types.RoadmapEdge, int64, error) {
  result, version, err := gs.mutate(ctx, userID, roadmapID, func(data *types.RoadmapData) (any, error) {
    idx := -1
    for i, e := range data.Edges {
      if edge.ID != "" && e.ID == edge.ID {
        idx = i
        break
      }
      if edge.ID == "" && e.Source == edge.Source && e.Target == edge.Target {
        idx = i
        break
      }
    }
    if idx < 0 {
      return nil, apierr.NotFound("edge_not_found", "Edge not found")
    }
    removed := data.Edges[idx]
    data.Edges = append(data.Edges[:idx], data.Edges[idx+1:]...)
    return &removed, nil
  })
  if err != nil {
    return nil, 0, err
  }
  return result.(*types.RoadmapEdge), version, nil
}

func (gs *graphService) AddNode(ctx context.Context, userID, roadmapID uuid.UUID, node types.RoadmapNode) (*types.RoadmapNode, error) {
  added, _, err := gs.addNode(ctx, userID, roadmapID, node)
  return added, err
}

func (gs *graphService) UpdateNode(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string, node types.RoadmapNode) (*types.RoadmapNodeData, error) {
  updated, _, err := gs.updateNode(ctx, userID, roadmapID, nodeID, node)
  return updated, err
}

func (gs *graphService) DeleteNode(ctx context.Context, userID, roadmapID uuid.UUID, nodeID string) (*types.RoadmapNodeData, error) {
  deleted, _, err := gs.deleteNode(ctx, userID, roadmapID, nodeID)
  return deleted, err
}

func findNode(nodes []types.RoadmapNode, id string) *types.RoadmapNode {
  for i := range nodes {
    if nodes[i].ID == id {
      return &nodes[i]
    }
  }
  return nil
}
