package handlers

import (
	"net/http"

	"ideagraph/application/commands"
	"ideagraph/application/services"
	"ideagraph/pkg/common"
	pkgerrors "ideagraph/pkg/errors"

	"go.uber.org/zap"
)

// IdeaHandler handles project-independent requests: idea analysis and the document corpus
type IdeaHandler struct {
	service      *services.ProjectService
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewIdeaHandler creates a new idea handler
func NewIdeaHandler(service *services.ProjectService, errorHandler *pkgerrors.ErrorHandler, logger *zap.Logger) *IdeaHandler {
	return &IdeaHandler{
		service:      service,
		errorHandler: errorHandler,
		logger:       logger.Named("idea_handler"),
	}
}

// AnalyzeIdea handles POST /ideas/analyze
func (h *IdeaHandler) AnalyzeIdea(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.AnalyzeIdeaCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID

	analysis, err := h.service.AnalyzeIdea(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, analysis)
}

// AddDocument handles POST /documents
func (h *IdeaHandler) AddDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.errorHandler)
	if !ok {
		return
	}

	var cmd commands.AddDocumentCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	cmd.UserID = userID

	doc, err := h.service.AddDocument(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Debug("Document indexed", zap.String("userID", userID), zap.String("documentID", doc.ID))
	common.RespondJSON(w, http.StatusCreated, doc)
}
