// Package session owns one visualization instance: its graph, layout engine,
// selection state and the debounced work queues that drive them.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"kgview/application/ports"
	"kgview/application/scheduler"
	appservices "kgview/application/services"
	"kgview/domain/config"
	"kgview/domain/core/aggregates"
	"kgview/domain/core/valueobjects"
	"kgview/domain/events"
	"kgview/domain/interaction"
	"kgview/domain/layout"
	domainservices "kgview/domain/services"
	pkgerrors "kgview/pkg/errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State is the load state of a session
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Rebuild reasons
const (
	ReasonLoad        = "load"
	ReasonReconfigure = "reconfigure"
)

// ErrClosed is returned by every operation on a closed session
var ErrClosed = pkgerrors.NewConflictError("session is closed")

// ErrNotReady is returned when an interaction arrives before a graph exists
var ErrNotReady = pkgerrors.NewConflictError("session has no graph loaded")

// Loader is the snapshot loading dependency of a session
type Loader interface {
	Load(ctx context.Context, query string) (*appservices.LoadResult, error)
	Invalidate(ctx context.Context, query string)
}

// ReconfigureRequest changes layout parameters and optionally the mode
type ReconfigureRequest struct {
	Mode   layout.Mode   `json:"mode,omitempty"`
	Params layout.Params `json:"params"`
}

// Options configure a new session
type Options struct {
	Mode   layout.Mode
	Params *layout.Params
	Query  string
}

// Dependencies are shared by every session of a manager
type Dependencies struct {
	Config     *config.DomainConfig
	Loader     Loader
	Inferencer domainservices.RelationshipInferencer
	Publisher  ports.EventPublisher
	Streams    ports.EventStream
	Metrics    ports.Metrics
	Logger     *zap.Logger
	Clock      func() time.Time

	// LayoutDefaults supplies parameters for sessions created without any
	LayoutDefaults func() layout.Params
}

func (d *Dependencies) withDefaults() Dependencies {
	out := *d
	if out.Config == nil {
		out.Config = config.DefaultDomainConfig()
	}
	if out.Loader == nil {
		out.Loader = appservices.NewSnapshotLoader(nil, nil, 0, domainservices.NewGraphBuilder(nil, out.Config), out.Metrics, out.Logger)
	}
	if out.Inferencer == nil {
		out.Inferencer = domainservices.NewDefaultRelationshipInferencer(
			domainservices.NewInferenceConfig(out.Config), nil,
		)
	}
	if out.Metrics == nil {
		out.Metrics = ports.NoopMetrics{}
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	if out.Clock == nil {
		out.Clock = time.Now
	}
	return out
}

// Session is one visualization instance. All methods are safe for concurrent
// use; the engine itself is only touched under the session lock.
type Session struct {
	id   string
	deps Dependencies

	mu       sync.Mutex
	mode     layout.Mode
	params   layout.Params
	query    string
	state    State
	lastErr  error
	report   domainservices.IngestReport
	origin   string
	graph    *aggregates.Graph
	engine   layout.Engine
	tracker  *interaction.Tracker
	dragging valueobjects.NodeID
	sequence int64
	rebuilds int
	closed   bool

	reconfigure *scheduler.Debouncer[ReconfigureRequest]
	inference   *scheduler.Debouncer[struct{}]
	cursor      *domainservices.InferenceCursor

	tracer trace.Tracer
	logger *zap.Logger
}

// New creates a session. Nothing is loaded until Load is called.
func New(id string, opts Options, deps Dependencies) (*Session, error) {
	deps = deps.withDefaults()

	mode := opts.Mode
	if mode == "" {
		parsed, err := layout.ParseMode(deps.Config.DefaultLayoutMode)
		if err != nil {
			return nil, err
		}
		mode = parsed
	}
	params := layout.DefaultParams()
	if deps.LayoutDefaults != nil {
		params = deps.LayoutDefaults()
	}
	if opts.Params != nil {
		params = *opts.Params
	}
	if err := params.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if mode != layout.ModePlanar && mode != layout.ModeVolumetric {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown layout mode %q", mode))
	}

	return &Session{
		id:          id,
		deps:        deps,
		mode:        mode,
		params:      params,
		query:       opts.Query,
		state:       StateIdle,
		tracker:     interaction.NewTracker(),
		reconfigure: scheduler.NewDebouncer[ReconfigureRequest](deps.Config.ReconfigureDebounce),
		inference:   scheduler.NewDebouncer[struct{}](deps.Config.InferenceDebounce),
		tracer:      otel.Tracer("kgview/session"),
		logger:      deps.Logger.With(zap.String("sessionID", id)),
	}, nil
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// State returns the load state and, in StateError, the failure
func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastErr
}

// Info summarises the session for listing
type Info struct {
	ID        string                      `json:"id"`
	State     State                       `json:"state"`
	Error     string                      `json:"error,omitempty"`
	Retryable bool                        `json:"retryable,omitempty"`
	Mode      layout.Mode                 `json:"mode"`
	Query     string                      `json:"query,omitempty"`
	Origin    string                      `json:"origin,omitempty"`
	NodeCount int                         `json:"nodeCount"`
	EdgeCount int                         `json:"edgeCount"`
	Rebuilds  int                         `json:"rebuilds"`
	Report    domainservices.IngestReport `json:"report"`
	Params    layout.Params               `json:"params"`
}

// Info returns a summary of the session
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{
		ID:       s.id,
		State:    s.state,
		Mode:     s.mode,
		Query:    s.query,
		Origin:   s.origin,
		Rebuilds: s.rebuilds,
		Report:   s.report,
		Params:   s.params,
	}
	if s.lastErr != nil {
		info.Error = s.lastErr.Error()
		info.Retryable = pkgerrors.Retryable(s.lastErr)
	}
	if s.graph != nil {
		info.NodeCount = s.graph.NodeCount()
		info.EdgeCount = s.graph.EdgeCount()
	}
	return info
}

// Load fetches the current query's snapshot and replaces the graph. When the
// store is unreachable the session enters StateError and keeps its previous
// graph and engine.
func (s *Session) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.state = StateLoading
	query := s.query
	s.mu.Unlock()

	result, err := s.deps.Loader.Load(ctx, query)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	now := s.deps.Clock()
	if err != nil {
		s.state = StateError
		s.lastErr = err
		s.mu.Unlock()
		s.logger.Warn("Snapshot load failed", zap.Error(err))
		s.publish(ctx, events.NewSnapshotFailed(s.id, err, now))
		return err
	}

	s.install(ctx, result, now)
	evts := []events.DomainEvent{
		events.NewSnapshotLoaded(s.id, result.Graph.NodeCount(), result.Graph.EdgeCount(), result.Report.UsedFallback, result.Report, now),
	}
	if s.engine != nil {
		evts = append(evts, events.NewLayoutRebuilt(s.id, string(s.mode), ReasonLoad, s.engine.NodeCount(), s.engine.LinkCount(), now))
	}
	s.mu.Unlock()

	s.publish(ctx, evts...)
	return nil
}

// Refresh drops any cached snapshot and loads again
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	query := s.query
	s.mu.Unlock()

	s.deps.Loader.Invalidate(ctx, query)
	return s.Load(ctx)
}

// Query switches the session to a new free text query and loads it
func (s *Session) Query(ctx context.Context, text string) error {
	s.mu.Lock()
	s.query = text
	s.mu.Unlock()
	return s.Load(ctx)
}

// Retry reloads after a failure
func (s *Session) Retry(ctx context.Context) error {
	s.mu.Lock()
	state := s.state
	s.mu.Unlock()

	if state != StateError {
		return pkgerrors.NewConflictError("session is not in an error state")
	}
	return s.Load(ctx)
}

// install swaps in a freshly built graph. Caller holds the lock.
func (s *Session) install(ctx context.Context, result *appservices.LoadResult, now time.Time) {
	s.graph = result.Graph
	s.report = result.Report
	s.origin = result.Origin
	s.state = StateReady
	s.lastErr = nil
	s.cursor = nil
	s.inference.Cancel()
	s.tracker.Prune(s.graph)
	if s.dragging != "" && !s.graph.HasNode(s.dragging) {
		s.dragging = ""
	}

	if err := s.rebuild(ctx, s.mode, s.params, ReasonLoad); err != nil {
		// params were validated on the way in
		s.logger.Error("Rebuild after load failed", zap.Error(err))
	}
	if s.deps.Config.EnableInference {
		s.inference.Push(struct{}{}, now)
	}
}

// rebuild discards the engine and creates a new one holding the current graph.
// Bodies keep the positions they had in the previous engine. Caller holds the lock.
func (s *Session) rebuild(ctx context.Context, mode layout.Mode, params layout.Params, reason string) error {
	_, span := s.tracer.Start(ctx, "session.rebuild", trace.WithAttributes(
		attribute.String("layout.mode", string(mode)),
		attribute.String("rebuild.reason", reason),
	))
	defer span.End()

	engine, err := layout.NewEngine(mode, params)
	if err != nil {
		span.RecordError(err)
		return pkgerrors.NewValidationError(err.Error())
	}

	previous := s.engine
	for _, node := range s.graph.Nodes() {
		var initial *valueobjects.Position
		if previous != nil {
			if pos, ok := previous.Position(node.ID()); ok {
				initial = &pos
			}
		}
		if initial == nil && node.HasInitialPosition() {
			pos := node.Position()
			initial = &pos
		}
		if err := engine.AddNode(node.ID(), initial); err != nil {
			return err
		}
	}
	for _, edge := range s.graph.Edges() {
		if err := engine.AddEdge(edge.SourceID, edge.TargetID, edge.Strength); err != nil {
			return err
		}
	}
	if s.dragging != "" && previous != nil {
		if pos, ok := previous.Position(s.dragging); ok {
			_ = engine.Pin(s.dragging, pos)
		}
	}

	s.engine = engine
	s.mode = mode
	s.params = params
	s.rebuilds++
	engine.Reheat()
	syncPositions(s.graph, engine)

	s.deps.Metrics.IncRebuilds(reason)
	s.logger.Debug("Layout rebuilt",
		zap.String("mode", string(mode)),
		zap.String("reason", reason),
		zap.Int("bodies", engine.NodeCount()),
		zap.Int("links", engine.LinkCount()),
	)
	return nil
}

// Reconfigure queues a parameter change. The change is applied by Tick once
// the debounce window passes, and a burst collapses into one rebuild using
// the latest request.
func (s *Session) Reconfigure(req ReconfigureRequest, now time.Time) error {
	if req.Mode != "" && req.Mode != layout.ModePlanar && req.Mode != layout.ModeVolumetric {
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown layout mode %q", req.Mode))
	}
	if err := req.Params.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.reconfigure.Push(req, now)
	return nil
}

// ScheduleInference queues an inference pass
func (s *Session) ScheduleInference(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && s.graph != nil {
		s.inference.Push(struct{}{}, now)
	}
}

// Tick applies due reconfiguration, advances pending inference by one pair
// budget and steps the engine once.
func (s *Session) Tick(ctx context.Context, now time.Time) (Frame, error) {
	start := time.Now()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Frame{}, ErrClosed
	}

	var evts []events.DomainEvent
	if batch := s.reconfigure.Drain(now); len(batch) > 0 {
		latest := batch[len(batch)-1]
		mode := latest.Mode
		if mode == "" {
			mode = s.mode
		}
		if s.graph == nil {
			// No engine yet: the next install builds with these settings.
			s.mode, s.params = mode, latest.Params
		} else if err := s.rebuild(ctx, mode, latest.Params, ReasonReconfigure); err != nil {
			s.logger.Warn("Reconfigure rejected", zap.Error(err))
		} else {
			evts = append(evts, events.NewLayoutRebuilt(s.id, string(mode), ReasonReconfigure, s.engine.NodeCount(), s.engine.LinkCount(), now))
		}
	}

	if evt := s.advanceInference(ctx, now); evt != nil {
		evts = append(evts, evt)
	}

	if s.engine != nil {
		if s.engine.Step() {
			s.deps.Metrics.IncLayoutSteps()
		}
		syncPositions(s.graph, s.engine)
	}
	s.sequence++
	frame := buildFrame(s)
	s.mu.Unlock()

	s.deps.Metrics.ObserveTick(time.Since(start))
	s.publish(ctx, evts...)
	return frame, nil
}

// advanceInference runs one budgeted chunk of the pending pass. Caller holds the lock.
func (s *Session) advanceInference(ctx context.Context, now time.Time) events.DomainEvent {
	if s.graph == nil {
		return nil
	}
	if s.inference.Drain(now) != nil {
		cursor, err := s.deps.Inferencer.NewCursor(s.graph)
		if err != nil {
			if errors.Is(err, domainservices.ErrGraphTooLarge) {
				s.logger.Info("Skipping inference for large graph", zap.Int("nodes", s.graph.NodeCount()))
			} else {
				s.logger.Warn("Inference could not start", zap.Error(err))
			}
			return nil
		}
		s.cursor = cursor
	}
	if s.cursor == nil {
		return nil
	}

	budget := s.deps.Config.PairBudget
	if budget <= 0 {
		budget = s.cursor.TotalPairs()
	}
	before := s.cursor.Evaluated()
	done := s.cursor.Next(budget)
	s.deps.Metrics.AddInferencePairs(s.cursor.Evaluated() - before)
	if !done {
		return nil
	}

	_, span := s.tracer.Start(ctx, "session.applyInference")
	defer span.End()

	cursor := s.cursor
	s.cursor = nil
	candidates := cursor.Candidates()
	added, err := s.deps.Inferencer.Apply(s.graph, candidates)
	if err != nil {
		span.RecordError(err)
		s.logger.Warn("Applying inferred edges failed", zap.Error(err))
	}
	for _, c := range candidates {
		if edge, ok := s.graph.EdgeBetween(c.SourceID, c.TargetID); ok && edge.Generated && s.engine != nil {
			_ = s.engine.AddEdge(edge.SourceID, edge.TargetID, edge.Strength)
		}
	}
	if added > 0 && s.engine != nil {
		s.engine.Reheat()
	}

	span.SetAttributes(attribute.Int("inference.pairs", cursor.Evaluated()), attribute.Int("inference.added", added))
	s.deps.Metrics.AddGeneratedEdges(added)
	s.logger.Debug("Inference pass complete",
		zap.Int("pairs", cursor.Evaluated()),
		zap.Int("candidates", len(candidates)),
		zap.Int("added", added),
	)
	return events.NewEdgesInferred(s.id, cursor.Evaluated(), added, now)
}

// Frame returns the current state without stepping
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildFrame(s)
}

// Params returns the active layout parameters and mode
func (s *Session) Params() (layout.Mode, layout.Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode, s.params
}

// Rebuilds returns how many times the engine has been rebuilt
func (s *Session) Rebuilds() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuilds
}

// withGraph runs fn under the lock once a graph exists
func (s *Session) withGraph(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.graph == nil || s.engine == nil {
		return ErrNotReady
	}
	return fn()
}

// Select selects a node and returns its statistics
func (s *Session) Select(ctx context.Context, id valueobjects.NodeID) (interaction.NodeStatistics, error) {
	var stats interaction.NodeStatistics
	err := s.withGraph(func() error {
		var err error
		stats, err = s.tracker.Select(s.graph, id)
		return err
	})
	if err != nil {
		return interaction.NodeStatistics{}, err
	}
	s.publish(ctx, events.NewNodeSelected(s.id, id, stats, s.deps.Clock()))
	return stats, nil
}

// Statistics computes the statistics of any node without selecting it
func (s *Session) Statistics(id valueobjects.NodeID) (interaction.NodeStatistics, error) {
	var stats interaction.NodeStatistics
	err := s.withGraph(func() error {
		var err error
		stats, err = interaction.ComputeStatistics(s.graph, id)
		return err
	})
	return stats, err
}

// Hover records the hovered node. An empty id clears the hover.
func (s *Session) Hover(ctx context.Context, id valueobjects.NodeID) error {
	err := s.withGraph(func() error {
		if !id.IsZero() && !s.graph.HasNode(id) {
			return pkgerrors.NewNotFoundError("node")
		}
		s.tracker.Hover(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewNodeHovered(s.id, id, s.deps.Clock()))
	return nil
}

// ClickStatistic highlights the subgraph behind a statistic of the selected node
func (s *Session) ClickStatistic(
	ctx context.Context,
	kind interaction.StatisticKind,
	relType valueobjects.RelationshipType,
) (*interaction.Highlight, error) {
	var h *interaction.Highlight
	var selected valueobjects.NodeID
	err := s.withGraph(func() error {
		var err error
		h, err = s.tracker.ClickStatistic(s.graph, kind, relType)
		selected, _ = s.tracker.Selected()
		return err
	})
	if err != nil {
		return nil, err
	}

	nodeIDs := make([]string, len(h.Nodes))
	for i, id := range h.Nodes {
		nodeIDs[i] = id.String()
	}
	edgeKeys := make([]string, len(h.Edges))
	for i, key := range h.Edges {
		edgeKeys[i] = key.String()
	}
	s.publish(ctx, events.NewStatisticClicked(s.id, selected, string(kind), string(h.RelationshipType), nodeIDs, edgeKeys, s.deps.Clock()))
	return h, nil
}

// ClearHighlight restores default emphasis
func (s *Session) ClearHighlight(ctx context.Context) error {
	err := s.withGraph(func() error {
		s.tracker.ClearHighlight()
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewHighlightCleared(s.id, s.deps.Clock()))
	return nil
}

// DragStart pins a node under the pointer and reheats the simulation
func (s *Session) DragStart(ctx context.Context, id valueobjects.NodeID, pos valueobjects.Position) error {
	var pinned valueobjects.Position
	err := s.withGraph(func() error {
		if err := s.pin(id, pos); err != nil {
			return err
		}
		s.dragging = id
		s.engine.Reheat()
		pinned, _ = s.engine.Position(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewNodeDragStarted(s.id, id, pinned, s.deps.Clock()))
	return nil
}

// DragMove moves the pinned node
func (s *Session) DragMove(ctx context.Context, id valueobjects.NodeID, pos valueobjects.Position) error {
	var pinned valueobjects.Position
	err := s.withGraph(func() error {
		if err := s.pin(id, pos); err != nil {
			return err
		}
		s.engine.Reheat()
		pinned, _ = s.engine.Position(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewNodeDragMoved(s.id, id, pinned, s.deps.Clock()))
	return nil
}

// DragEnd releases the node and lets the layout settle around it
func (s *Session) DragEnd(ctx context.Context, id valueobjects.NodeID) error {
	var released valueobjects.Position
	err := s.withGraph(func() error {
		if err := s.engine.Unpin(id); err != nil {
			return pkgerrors.NewNotFoundError("node")
		}
		if s.dragging == id {
			s.dragging = ""
		}
		s.engine.Reheat()
		released, _ = s.engine.Position(id)
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, events.NewNodeDragEnded(s.id, id, released, s.deps.Clock()))
	return nil
}

// pin holds id at pos and mirrors it into the graph. Caller holds the lock.
func (s *Session) pin(id valueobjects.NodeID, pos valueobjects.Position) error {
	if err := s.engine.Pin(id, pos); err != nil {
		return pkgerrors.NewNotFoundError("node")
	}
	if p, ok := s.engine.Position(id); ok {
		_ = s.graph.SetNodePosition(id, p, valueobjects.Position{})
	}
	return nil
}

// Close tears the session down. Later calls fail with ErrClosed.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.reconfigure.Cancel()
	s.inference.Cancel()
	s.cursor = nil
	s.engine = nil
	s.graph = nil
	s.tracker.ClearSelection()
}

func (s *Session) publish(ctx context.Context, evts ...events.DomainEvent) {
	if s.deps.Publisher == nil || len(evts) == 0 {
		return
	}
	var err error
	if len(evts) == 1 {
		err = s.deps.Publisher.Publish(ctx, evts[0])
	} else {
		err = s.deps.Publisher.PublishBatch(ctx, evts)
	}
	if err != nil {
		s.logger.Warn("Failed to publish session events", zap.Int("count", len(evts)), zap.Error(err))
	}
}
