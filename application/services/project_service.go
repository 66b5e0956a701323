package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ideagraph/application/commands"
	"ideagraph/application/interpreter"
	"ideagraph/application/ports"
	"ideagraph/application/prompts"
	"ideagraph/domain/core/aggregates"
	"ideagraph/domain/core/entities"
	"ideagraph/domain/core/valueobjects"
	pkgerrors "ideagraph/pkg/errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	noDocumentsRequested = "No documents requested."
	documentSeparator    = "\n---\n"
)

// errUnchanged lets a mutation report that nothing needs saving
var errUnchanged = errors.New("project unchanged")

// ConverseResult is the node and edge a converse call added
type ConverseResult struct {
	NewNode entities.Node `json:"newNode"`
	NewEdge entities.Edge `json:"newEdge"`
}

// SynthesizeResult is the generated Markdown report
type SynthesizeResult struct {
	Document string `json:"document"`
}

// PitchResult is the generated validation pitch
type PitchResult struct {
	Pitch string `json:"pitch"`
}

// UpdatePositionsResult reports how many nodes moved
type UpdatePositionsResult struct {
	Applied int `json:"applied"`
}

// ProjectService orchestrates every project operation: load, build context,
// assemble the prompt, call the model, interpret, mutate and persist.
// Model I/O always happens before the mutation, and no lock is held across I/O.
type ProjectService struct {
	repo      ports.ProjectRepository
	model     ports.LanguageModel
	retriever ports.Retriever
	indexer   ports.DocumentIndexer
	publisher ports.EventPublisher
	catalog   *prompts.Catalog
	metrics   Metrics
	tracer    trace.Tracer
	opts      Options
	logger    *zap.Logger
}

// NewProjectService creates a new project service.
// retriever and indexer may be nil when retrieval is disabled.
func NewProjectService(
	repo ports.ProjectRepository,
	model ports.LanguageModel,
	retriever ports.Retriever,
	indexer ports.DocumentIndexer,
	publisher ports.EventPublisher,
	catalog *prompts.Catalog,
	metrics Metrics,
	tracer trace.Tracer,
	opts Options,
	logger *zap.Logger,
) *ProjectService {
	if metrics == nil {
		metrics = NopMetrics{}
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultOptions().MaxAttempts
	}
	return &ProjectService{
		repo:      repo,
		model:     model,
		retriever: retriever,
		indexer:   indexer,
		publisher: publisher,
		catalog:   catalog,
		metrics:   metrics,
		tracer:    tracer,
		opts:      opts,
		logger:    logger.Named("project_service"),
	}
}

// CreateProject validates and stores a new project, then tags it.
// By default a tagging failure is logged and the untagged project is returned.
func (s *ProjectService) CreateProject(ctx context.Context, cmd commands.CreateProjectCommand) (_ aggregates.ProjectSnapshot, err error) {
	ctx, done := s.begin(ctx, "CreateProject", attribute.String("user.id", cmd.UserID))
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return aggregates.ProjectSnapshot{}, err
	}
	project, err := aggregates.NewProject(cmd.UserID, cmd.Name, cmd.Nodes, cmd.Edges)
	if err != nil {
		return aggregates.ProjectSnapshot{}, err
	}

	if s.opts.OpportunityTagRequired {
		tag, err := s.deriveOpportunity(ctx, project)
		if err != nil {
			return aggregates.ProjectSnapshot{}, err
		}
		project.SetOpportunity(tag)
	}

	if err := s.repo.Create(context.WithoutCancel(ctx), project); err != nil {
		return aggregates.ProjectSnapshot{}, storeError(err)
	}
	s.publish(ctx, project)
	s.logger.Info("Project created",
		zap.String("projectID", project.ID()),
		zap.String("userID", cmd.UserID),
		zap.Int("nodes", len(cmd.Nodes)),
	)

	if s.opts.OpportunityTagRequired {
		return project.Snapshot(), nil
	}

	tag, err := s.deriveOpportunity(ctx, project)
	if err != nil {
		s.metrics.RecordOpportunityTagFailure()
		s.logger.Warn("Opportunity tagging failed, keeping project untagged",
			zap.String("projectID", project.ID()),
			zap.Error(err),
		)
		return project.Snapshot(), nil
	}

	tagged, err := s.mutate(ctx, "CreateProject", project.ID(), cmd.UserID, func(p *aggregates.Project) error {
		p.SetOpportunity(tag)
		return nil
	})
	if err != nil {
		s.metrics.RecordOpportunityTagFailure()
		s.logger.Warn("Failed to store opportunity tag",
			zap.String("projectID", project.ID()),
			zap.Error(err),
		)
		return project.Snapshot(), nil
	}
	return tagged.Snapshot(), nil
}

func (s *ProjectService) deriveOpportunity(ctx context.Context, project *aggregates.Project) (valueobjects.Opportunity, error) {
	notes := "Project: " + project.Name()
	if forest := project.SelectionContext(nil); forest != "" {
		notes += "\n" + forest
	}
	prompt, err := s.catalog.OpportunityTag(notes)
	if err != nil {
		return valueobjects.Opportunity{}, pkgerrors.NewInternalError("failed to assemble prompt").WithCause(err)
	}
	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return valueobjects.Opportunity{}, err
	}
	var tag valueobjects.Opportunity
	if err := interpreter.Decode(raw, valueobjects.OpportunityKeys, &tag); err != nil {
		return valueobjects.Opportunity{}, err
	}
	return tag, nil
}

// GetProject loads one of the caller's projects
func (s *ProjectService) GetProject(ctx context.Context, owner, projectID string) (_ aggregates.ProjectSnapshot, err error) {
	ctx, done := s.begin(ctx, "GetProject", attribute.String("project.id", projectID))
	defer func() { done(err) }()

	project, err := s.load(ctx, projectID, owner)
	if err != nil {
		return aggregates.ProjectSnapshot{}, err
	}
	return project.Snapshot(), nil
}

// ListProjects returns the caller's projects, newest first
func (s *ProjectService) ListProjects(ctx context.Context, owner string) (_ []aggregates.ProjectSnapshot, err error) {
	ctx, done := s.begin(ctx, "ListProjects", attribute.String("user.id", owner))
	defer func() { done(err) }()

	if owner == "" {
		return nil, pkgerrors.NewValidationError("owner is required")
	}
	projects, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, storeError(err)
	}
	out := make([]aggregates.ProjectSnapshot, 0, len(projects))
	for _, p := range projects {
		out = append(out, p.Snapshot())
	}
	return out, nil
}

// Converse answers a follow-up question under a parent node and appends the answer as its child
func (s *ProjectService) Converse(ctx context.Context, cmd commands.ConverseCommand) (_ *ConverseResult, err error) {
	ctx, done := s.begin(ctx, "Converse",
		attribute.String("project.id", cmd.ProjectID),
		attribute.String("node.parent_id", cmd.ParentNodeID),
		attribute.Bool("rag", cmd.UseRAG),
	)
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	position, err := cmd.Position.Position()
	if err != nil {
		return nil, err
	}

	project, err := s.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if _, ok := project.FindNode(cmd.ParentNodeID); !ok {
		return nil, pkgerrors.NewNotFoundError("parent node")
	}

	documents := noDocumentsRequested
	if cmd.UseRAG {
		if documents, err = s.retrieveDocuments(ctx, cmd.UserID, cmd.Prompt); err != nil {
			return nil, err
		}
	}

	prompt, err := s.catalog.Converse(prompts.ConverseInput{
		ConversationHistory: project.PathContext(cmd.ParentNodeID),
		Documents:           documents,
		Question:            cmd.Prompt,
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to assemble prompt").WithCause(err)
	}
	answer, err := s.completeText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	child, err := entities.NewNode(answer, cmd.Prompt, position)
	if err != nil {
		return nil, err
	}
	child.Title = strings.TrimSpace(cmd.Title)

	var edge entities.Edge
	if _, err := s.mutate(ctx, "Converse", cmd.ProjectID, cmd.UserID, func(p *aggregates.Project) error {
		var addErr error
		edge, addErr = p.AddChild(cmd.ParentNodeID, *child)
		return addErr
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Node added",
		zap.String("projectID", cmd.ProjectID),
		zap.String("nodeID", child.ID),
		zap.String("parentID", cmd.ParentNodeID),
	)
	return &ConverseResult{NewNode: *child, NewEdge: edge}, nil
}

func (s *ProjectService) retrieveDocuments(ctx context.Context, owner, query string) (string, error) {
	if s.retriever == nil {
		return "", pkgerrors.NewValidationError("document retrieval is not enabled")
	}
	docs, err := s.retriever.Retrieve(ctx, owner, query)
	if err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return "", err
		}
		return "", pkgerrors.NewExternalError("retriever", err)
	}
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	return strings.Join(contents, documentSeparator), nil
}

// Synthesize writes a Markdown report over the whole forest or the selected paths. Read-only.
func (s *ProjectService) Synthesize(ctx context.Context, cmd commands.SynthesizeCommand) (_ *SynthesizeResult, err error) {
	ctx, done := s.begin(ctx, "Synthesize",
		attribute.String("project.id", cmd.ProjectID),
		attribute.Int("selected", len(cmd.SelectedNodeIDs)),
	)
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	notes, err := researchNotes(project, cmd.SelectedNodeIDs)
	if err != nil {
		return nil, err
	}

	prompt, err := s.catalog.Synthesize(notes)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to assemble prompt").WithCause(err)
	}
	document, err := s.completeText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &SynthesizeResult{Document: document}, nil
}

// RateProject scores the project and stores the rating.
// An unusable model response leaves the stored rating untouched.
func (s *ProjectService) RateProject(ctx context.Context, cmd commands.RateProjectCommand) (_ *valueobjects.Rating, err error) {
	ctx, done := s.begin(ctx, "RateProject", attribute.String("project.id", cmd.ProjectID))
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	notes, err := researchNotes(project, cmd.NodeIDs)
	if err != nil {
		return nil, err
	}

	prompt, err := s.catalog.Rate(notes)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to assemble prompt").WithCause(err)
	}
	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var rating valueobjects.Rating
	if err := interpreter.Decode(raw, valueobjects.RatingKeys, &rating); err != nil {
		s.logger.Warn("Unusable rating response",
			zap.String("projectID", cmd.ProjectID),
			zap.Error(err),
		)
		return nil, err
	}

	if _, err := s.mutate(ctx, "RateProject", cmd.ProjectID, cmd.UserID, func(p *aggregates.Project) error {
		p.SetRating(rating)
		return nil
	}); err != nil {
		return nil, err
	}
	return &rating, nil
}

// GenerateValidationPitch writes a stealth post for the selected paths. Read-only.
func (s *ProjectService) GenerateValidationPitch(ctx context.Context, cmd commands.GeneratePitchCommand) (_ *PitchResult, err error) {
	ctx, done := s.begin(ctx, "GenerateValidationPitch", attribute.String("project.id", cmd.ProjectID))
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	summary, err := researchNotes(project, cmd.NodeIDs)
	if err != nil {
		return nil, err
	}

	prompt, err := s.catalog.Pitch(prompts.PitchInput{IdeaSummary: summary, ValidationMetric: cmd.ValidationMetric})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to assemble prompt").WithCause(err)
	}
	pitch, err := s.completeText(ctx, prompt)
	if err != nil {
		return nil, err
	}
	return &PitchResult{Pitch: pitch}, nil
}

// RegenerateNode replaces a child node's answer, using its parent's path as context
func (s *ProjectService) RegenerateNode(ctx context.Context, cmd commands.RegenerateNodeCommand) (_ *entities.Node, err error) {
	ctx, done := s.begin(ctx, "RegenerateNode",
		attribute.String("project.id", cmd.ProjectID),
		attribute.String("node.id", cmd.NodeID),
	)
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	project, err := s.load(ctx, cmd.ProjectID, cmd.UserID)
	if err != nil {
		return nil, err
	}
	if _, ok := project.FindNode(cmd.NodeID); !ok {
		return nil, pkgerrors.NewNotFoundError("node")
	}
	incoming, ok := project.IncomingEdge(cmd.NodeID)
	if !ok {
		return nil, pkgerrors.NewValidationError("cannot regenerate a root")
	}

	prompt, err := s.catalog.Regenerate(prompts.RegenerateInput{
		ConversationHistory: project.PathContext(incoming.Source),
		Question:            cmd.NewPrompt,
	})
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to assemble prompt").WithCause(err)
	}
	answer, err := s.completeText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var updated entities.Node
	if _, err := s.mutate(ctx, "RegenerateNode", cmd.ProjectID, cmd.UserID, func(p *aggregates.Project) error {
		var regenErr error
		updated, regenErr = p.RegenerateNode(cmd.NodeID, answer, cmd.NewPrompt)
		return regenErr
	}); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteNode removes a node and every edge touching it
func (s *ProjectService) DeleteNode(ctx context.Context, cmd commands.DeleteNodeCommand) (err error) {
	ctx, done := s.begin(ctx, "DeleteNode",
		attribute.String("project.id", cmd.ProjectID),
		attribute.String("node.id", cmd.NodeID),
	)
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return err
	}
	_, err = s.mutate(ctx, "DeleteNode", cmd.ProjectID, cmd.UserID, func(p *aggregates.Project) error {
		_, delErr := p.DeleteNode(cmd.NodeID)
		return delErr
	})
	return err
}

// UpdateNodePositions moves nodes in bulk; unknown ids are ignored
func (s *ProjectService) UpdateNodePositions(ctx context.Context, cmd commands.UpdateNodePositionsCommand) (_ *UpdatePositionsResult, err error) {
	ctx, done := s.begin(ctx, "UpdateNodePositions",
		attribute.String("project.id", cmd.ProjectID),
		attribute.Int("updates", len(cmd.Updates)),
	)
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	applied := 0
	_, err = s.mutate(ctx, "UpdateNodePositions", cmd.ProjectID, cmd.UserID, func(p *aggregates.Project) error {
		n, moveErr := p.UpdateHierarchy(cmd.Updates)
		if moveErr != nil {
			return moveErr
		}
		applied = n
		if n == 0 {
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdatePositionsResult{Applied: applied}, nil
}

// AnalyzeIdea critiques a raw idea and proposes variations. Stateless.
func (s *ProjectService) AnalyzeIdea(ctx context.Context, cmd commands.AnalyzeIdeaCommand) (_ *valueobjects.IdeaAnalysis, err error) {
	ctx, done := s.begin(ctx, "AnalyzeIdea", attribute.String("user.id", cmd.UserID))
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	prompt, err := s.catalog.AnalyzeIdea(cmd.Idea)
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to assemble prompt").WithCause(err)
	}
	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	var analysis valueobjects.IdeaAnalysis
	if err := interpreter.Decode(raw, valueobjects.IdeaAnalysisKeys, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// AddDocument embeds text and adds it to the caller's retrieval corpus
func (s *ProjectService) AddDocument(ctx context.Context, cmd commands.AddDocumentCommand) (_ *ports.Document, err error) {
	ctx, done := s.begin(ctx, "AddDocument", attribute.String("user.id", cmd.UserID))
	defer func() { done(err) }()

	if err := commands.Validate(cmd); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cmd.Content) == "" {
		return nil, pkgerrors.NewValidationError("document content is empty")
	}
	if s.indexer == nil {
		return nil, pkgerrors.NewValidationError("document retrieval is not enabled")
	}
	doc, err := s.indexer.Index(ctx, cmd.UserID, cmd.Content, cmd.Source)
	if err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.NewExternalError("document index", err)
	}
	return doc, nil
}

// mutate runs apply against a fresh copy of the stored project and saves it
// with an expected-version check, retrying with exponential backoff on conflict.
// It runs detached from caller cancellation so a validated answer is not lost.
func (s *ProjectService) mutate(ctx context.Context, operation, projectID, owner string, apply func(*aggregates.Project) error) (*aggregates.Project, error) {
	ctx = context.WithoutCancel(ctx)
	delay := s.opts.RetryBaseDelay

	for attempt := 1; ; attempt++ {
		current, err := s.load(ctx, projectID, owner)
		if err != nil {
			return nil, err
		}
		fresh := current.Clone()
		if err := apply(fresh); err != nil {
			if errors.Is(err, errUnchanged) {
				return fresh, nil
			}
			return nil, err
		}

		err = s.repo.Save(ctx, fresh)
		if err == nil {
			s.publish(ctx, fresh)
			return fresh, nil
		}
		if !errors.Is(err, ports.ErrVersionConflict) {
			return nil, storeError(err)
		}

		s.metrics.RecordVersionConflict(operation)
		s.logger.Debug("Version conflict, retrying",
			zap.String("operation", operation),
			zap.String("projectID", projectID),
			zap.Int("attempt", attempt),
		)
		if attempt >= s.opts.MaxAttempts {
			return nil, pkgerrors.NewConflictError(
				fmt.Sprintf("project %s was modified concurrently, please retry", projectID)).WithCause(err)
		}
		if delay > 0 {
			time.Sleep(delay)
			delay *= 2
		}
	}
}

func (s *ProjectService) load(ctx context.Context, projectID, owner string) (*aggregates.Project, error) {
	if projectID == "" || owner == "" {
		return nil, pkgerrors.NewNotFoundError("project")
	}
	project, err := s.repo.Get(ctx, projectID, owner)
	if err != nil {
		return nil, storeError(err)
	}
	return project, nil
}

// publish sends pending events. Failures are logged; the write already happened.
func (s *ProjectService) publish(ctx context.Context, project *aggregates.Project) {
	pending := project.GetUncommittedEvents()
	if len(pending) == 0 || s.publisher == nil {
		project.MarkEventsAsCommitted()
		return
	}
	if err := s.publisher.PublishBatch(context.WithoutCancel(ctx), pending); err != nil {
		s.logger.Warn("Failed to publish events",
			zap.String("projectID", project.ID()),
			zap.Int("events", len(pending)),
			zap.Error(err),
		)
	}
	project.MarkEventsAsCommitted()
}

func (s *ProjectService) complete(ctx context.Context, prompt prompts.Prompt) (string, error) {
	s.metrics.RecordPromptTokens(string(prompt.Name), prompt.Tokens)
	raw, err := s.model.Complete(ctx, prompt.Text)
	if err != nil {
		if pkgerrors.GetAppError(err) != nil {
			return "", err
		}
		return "", pkgerrors.NewUpstreamError("language model", err)
	}
	return raw, nil
}

func (s *ProjectService) completeText(ctx context.Context, prompt prompts.Prompt) (string, error) {
	raw, err := s.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return interpreter.Text(raw)
}

// begin opens a span and returns a closer that records the outcome
func (s *ProjectService) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	start := time.Now()
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "ProjectService."+operation, trace.WithAttributes(attrs...))
	}
	return ctx, func(err error) {
		s.metrics.RecordOperation(operation, time.Since(start), err)
		if span == nil {
			return
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// researchNotes renders the forest or the selected paths, refusing to prompt on nothing
func researchNotes(project *aggregates.Project, ids []string) (string, error) {
	notes := project.SelectionContext(ids)
	if strings.TrimSpace(notes) == "" {
		return "", pkgerrors.NewValidationError("no research notes to work from")
	}
	return notes, nil
}

func storeError(err error) error {
	if pkgerrors.GetAppError(err) != nil {
		return err
	}
	return pkgerrors.NewUpstreamError("project store", err)
}
