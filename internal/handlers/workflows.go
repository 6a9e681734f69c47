package handlers

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"

	"github.com/vancomm/aplenty-server/internal/config"
	"github.com/vancomm/aplenty-server/internal/middleware"
	"github.com/vancomm/aplenty-server/internal/repository"
	"github.com/vancomm/aplenty-server/internal/workflow"
)

// Store is the persistence used by WorkflowHandler; *repository.Queries
// implements it.
type Store interface {
	CreateRuleSet(ctx context.Context, params repository.CreateRuleSetParams) (*repository.RuleSet, error)
	FetchRuleSet(ctx context.Context, name string) (*repository.RuleSet, error)
	ListRuleSets(ctx context.Context) ([]repository.RuleSet, error)
	DeleteRuleSet(ctx context.Context, name string) (bool, error)
	CreateEvaluation(ctx context.Context, params repository.CreateEvaluationParams) (*repository.Evaluation, error)
	ListEvaluations(ctx context.Context, filter repository.EvaluationFilter) ([]repository.Evaluation, error)
}

var (
	ErrRuleSetExists   = errors.New("rule set with this name already exists")
	ErrRuleSetNotFound = errors.New("rule set not found")
)

type WorkflowHandler struct {
	log   *logrus.Logger
	store Store
	cfg   *config.App
	ws    *config.WebSocket
}

func NewWorkflowHandler(
	log *logrus.Logger,
	store Store,
	cfg *config.App,
	ws *config.WebSocket,
) *WorkflowHandler {
	return &WorkflowHandler{
		log:   log,
		store: store,
		cfg:   cfg,
		ws:    ws,
	}
}

// lookup loads the rule set named in the path. It writes the error response
// itself and returns ok=false on failure.
func (h WorkflowHandler) lookup(w http.ResponseWriter, r *http.Request) (*repository.RuleSet, bool) {
	rs, err := h.store.FetchRuleSet(r.Context(), r.PathValue("name"))
	if errors.Is(err, pgx.ErrNoRows) {
		sendError(w, h.log, http.StatusNotFound, ErrRuleSetNotFound)
		return nil, false
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to fetch rule set from db")
		return nil, false
	}
	return rs, true
}

// fetch is lookup followed by parsing the stored source.
func (h WorkflowHandler) fetch(
	w http.ResponseWriter, r *http.Request,
) (*repository.RuleSet, *workflow.Document, bool) {
	rs, ok := h.lookup(w, r)
	if !ok {
		return nil, nil, false
	}

	doc, err := workflow.Parse(strings.NewReader(rs.Source))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("db returned invalid rule_set.source")
		return nil, nil, false
	}
	return rs, doc, true
}

func (h WorkflowHandler) Create(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !workflow.ValidName(name) {
		sendError(w, h.log, http.StatusBadRequest, fmt.Errorf("invalid rule set name %q", name))
		return
	}

	body, doc, err := readDocument(w, r, h.cfg.MaxBodyLen)
	if err != nil {
		sendError(w, h.log, statusFor(err), err)
		return
	}
	if err := doc.Table.Check(); err != nil {
		sendError(w, h.log, statusFor(err), err)
		return
	}

	digest := blake2b.Sum256(body)
	params := repository.CreateRuleSetParams{
		Name:      name,
		Source:    string(body),
		Digest:    digest[:],
		RuleCount: doc.Table.Len(),
		PartCount: len(doc.Parts),
	}
	if author, ok := middleware.AuthorFrom(r.Context()); ok {
		params.Author = &author
	}

	rs, err := h.store.CreateRuleSet(r.Context(), params)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) &&
		pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
		sendError(w, h.log, http.StatusConflict, ErrRuleSetExists)
		return
	}
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to insert rule set")
		return
	}

	h.log.WithFields(logrus.Fields{
		"name":   rs.Name,
		"rules":  rs.RuleCount,
		"parts":  rs.PartCount,
		"digest": hex.EncodeToString(rs.Digest),
	}).Info("stored rule set")

	dto := NewRuleSetDTO(rs)
	dto.Source = ""
	sendJSONStatusOrLog(w, h.log, http.StatusCreated, dto)
}

func (h WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	ruleSets, err := h.store.ListRuleSets(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to list rule sets")
		return
	}

	dtos := make([]RuleSetDTO, 0, len(ruleSets))
	for i := range ruleSets {
		dtos = append(dtos, NewRuleSetDTO(&ruleSets[i]))
	}
	sendJSONOrLog(w, h.log, dtos)
}

func (h WorkflowHandler) Fetch(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.lookup(w, r)
	if !ok {
		return
	}

	etag := strconv.Quote(hex.EncodeToString(rs.Digest))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	sendJSONOrLog(w, h.log, NewRuleSetDTO(rs))
}

func (h WorkflowHandler) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.DeleteRuleSet(r.Context(), r.PathValue("name"))
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to delete rule set")
		return
	}
	if !deleted {
		sendError(w, h.log, http.StatusNotFound, ErrRuleSetNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h WorkflowHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	params, err := ParseEvaluateParams(r.URL.Query(), h.cfg)
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	rs, doc, ok := h.fetch(w, r)
	if !ok {
		return
	}

	e, err := evaluate(r.Context(), doc, params)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.WithError(err).Error("unable to evaluate rule set")
		}
		sendError(w, h.log, status, err)
		return
	}

	record, err := h.store.CreateEvaluation(r.Context(), repository.CreateEvaluationParams{
		RuleSetID: rs.RuleSetID,
		EntryRule: params.Entry,
		Box:       params.Box(),
		Answer:    e.answer,
		Parallel:  params.Parallel,
		Duration:  e.duration,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to store evaluation")
		return
	}

	h.log.WithFields(logrus.Fields{
		"rule_set":      rs.Name,
		"evaluation_id": record.EvaluationID.String(),
		"accepted":      record.AcceptedCombinations,
	}).Info("evaluated rule set")

	dto := NewEvaluationDTO(rs.Name, record)
	dto.Rules, dto.Parts = doc.Table.Len(), len(doc.Parts)
	sendJSONOrLog(w, h.log, dto)
}

func (h WorkflowHandler) Evaluations(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.lookup(w, r)
	if !ok {
		return
	}

	filter := repository.EvaluationFilter{RuleSetID: rs.RuleSetID, Limit: 100}
	query := r.URL.Query()
	if entry := query.Get("entry"); entry != "" {
		filter.EntryRule = &entry
	}

	evaluations, err := h.store.ListEvaluations(r.Context(), filter)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		h.log.WithError(err).Error("unable to list evaluations")
		return
	}

	dtos := make([]EvaluationDTO, 0, len(evaluations))
	for i := range evaluations {
		dtos = append(dtos, NewEvaluationDTO(rs.Name, &evaluations[i]))
	}
	sendJSONOrLog(w, h.log, dtos)
}

// Trace streams every terminal sub-box of an evaluation over a websocket,
// followed by a summary message.
func (h WorkflowHandler) Trace(w http.ResponseWriter, r *http.Request) {
	params, err := ParseEvaluateParams(r.URL.Query(), h.cfg)
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	_, doc, ok := h.fetch(w, r)
	if !ok {
		return
	}
	if err := doc.Table.Validate(params.Entry); err != nil {
		sendError(w, h.log, statusFor(err), err)
		return
	}

	conn, err := h.ws.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("unable to upgrade connection")
		return
	}
	defer conn.Close()

	write := func(v any) error {
		if err := conn.SetWriteDeadline(time.Now().Add(h.ws.WriteTimeout)); err != nil {
			return err
		}
		return conn.WriteJSON(v)
	}

	var summary TraceSummaryDTO
	err = workflow.Partition(doc.Table, params.Entry, params.Box(), func(reg workflow.Region) error {
		volume := reg.Box.Volume()
		summary.Regions++
		if reg.Outcome == workflow.Accept {
			summary.Accepted += volume
		} else {
			summary.Rejected += volume
		}
		return write(RegionDTO{Region: reg, Volume: volume})
	})
	if err != nil {
		h.log.WithError(err).Warn("trace aborted")
		return
	}
	if err := write(summary); err != nil {
		h.log.WithError(err).Warn("unable to send trace summary")
		return
	}

	err = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(h.ws.WriteTimeout),
	)
	if err != nil {
		h.log.WithError(err).Debug("unable to send close frame")
	}
}
