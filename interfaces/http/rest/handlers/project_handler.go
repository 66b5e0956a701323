package handlers

import (
	"net/http"

	"ideagraph/application/commands"
	"ideagraph/application/services"
	"ideagraph/pkg/common"
	pkgerrors "ideagraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProjectHandler handles project and node HTTP requests
type ProjectHandler struct {
	service      *services.ProjectService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewProjectHandler creates a new project handler
func NewProjectHandler(service *services.ProjectService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.Named("project_handler"),
	}
}

// CreateProject handles POST /projects
func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.CreateProjectCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID

	project, err := h.service.CreateProject(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, project)
}

// ListProjects handles GET /projects
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	projects, err := h.service.ListProjects(r.Context(), userID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

// GetProject handles GET /projects/{projectID}
func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	project, err := h.service.GetProject(r.Context(), userID, chi.URLParam(r, "projectID"))
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, project)
}

// Converse handles POST /projects/{projectID}/converse
func (h *ProjectHandler) Converse(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.ConverseCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID
	cmd.ProjectID = chi.URLParam(r, "projectID")

	result, err := h.service.Converse(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, result)
}

// Synthesize handles POST /projects/{projectID}/synthesize
func (h *ProjectHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.SynthesizeCommand
	if err := parseOptionalBody(w, r, &cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID
	cmd.ProjectID = chi.URLParam(r, "projectID")

	result, err := h.service.Synthesize(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// RateProject handles POST /projects/{projectID}/rate
func (h *ProjectHandler) RateProject(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.RateProjectCommand
	if err := parseOptionalBody(w, r, &cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID
	cmd.ProjectID = chi.URLParam(r, "projectID")

	rating, err := h.service.RateProject(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, rating)
}

// GeneratePitch handles POST /projects/{projectID}/pitch
func (h *ProjectHandler) GeneratePitch(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.GeneratePitchCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID
	cmd.ProjectID = chi.URLParam(r, "projectID")

	result, err := h.service.GenerateValidationPitch(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// UpdateNodePositions handles PATCH /projects/{projectID}/nodes/positions
func (h *ProjectHandler) UpdateNodePositions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.UpdateNodePositionsCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID
	cmd.ProjectID = chi.URLParam(r, "projectID")

	result, err := h.service.UpdateNodePositions(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, result)
}

// RegenerateNode handles PATCH /projects/{projectID}/nodes/{nodeID}
func (h *ProjectHandler) RegenerateNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.RegenerateNodeCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID
	cmd.ProjectID = chi.URLParam(r, "projectID")
	cmd.NodeID = chi.URLParam(r, "nodeID")

	node, err := h.service.RegenerateNode(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode handles DELETE /projects/{projectID}/nodes/{nodeID}
func (h *ProjectHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	cmd := commands.DeleteNodeCommand{
		UserID:    userID,
		ProjectID: chi.URLParam(r, "projectID"),
		NodeID:    chi.URLParam(r, "nodeID"),
	}
	if err := h.service.DeleteNode(r.Context(), cmd); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]string{"deleted": cmd.NodeID})
}
