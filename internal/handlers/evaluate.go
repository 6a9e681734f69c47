package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vancomm/aplenty-server/internal/config"
	"github.com/vancomm/aplenty-server/internal/workflow"
)

func readDocument(w http.ResponseWriter, r *http.Request, limit int64) ([]byte, *workflow.Document, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
	if err != nil {
		return nil, nil, &workflow.ParseError{Reason: "unable to read body", Text: err.Error()}
	}
	doc, err := workflow.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	return body, doc, nil
}

func evaluate(
	ctx context.Context, doc *workflow.Document, params EvaluateParams,
) (*evaluation, error) {
	start := time.Now()

	sum, err := workflow.SumAccepted(doc.Table, params.Entry, doc.Parts)
	if err != nil {
		return nil, fmt.Errorf("unable to route parts: %w", err)
	}

	var count int64
	if params.Parallel {
		count, err = workflow.CountParallel(ctx, doc.Table, params.Entry, params.Box())
	} else {
		count, err = workflow.Count(doc.Table, params.Entry, params.Box())
	}
	if err != nil {
		return nil, fmt.Errorf("unable to count combinations: %w", err)
	}

	return &evaluation{
		answer: workflow.Answer{
			AcceptedRatingSum:    sum,
			AcceptedCombinations: count,
		},
		duration: time.Since(start),
	}, nil
}

// EvaluateHandler evaluates rule sets sent in the request body without
// storing anything.
type EvaluateHandler struct {
	log *logrus.Logger
	cfg *config.App
}

func NewEvaluateHandler(log *logrus.Logger, cfg *config.App) *EvaluateHandler {
	return &EvaluateHandler{log: log, cfg: cfg}
}

func (h EvaluateHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	params, err := ParseEvaluateParams(r.URL.Query(), h.cfg)
	if err != nil {
		sendError(w, h.log, http.StatusBadRequest, err)
		return
	}

	_, doc, err := readDocument(w, r, h.cfg.MaxBodyLen)
	if err != nil {
		sendError(w, h.log, statusFor(err), err)
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

	h.log.WithFields(logrus.Fields{
		"entry":    params.Entry,
		"box":      params.Box().String(),
		"accepted": e.answer.AcceptedCombinations,
		"duration": e.duration.String(),
	}).Debug("evaluated ad hoc rule set")

	sendJSONOrLog(w, h.log, EvaluationDTO{
		EntryRule:            params.Entry,
		Box:                  params.Box(),
		AcceptedCombinations: e.answer.AcceptedCombinations,
		AcceptedRatingSum:    int64(e.answer.AcceptedRatingSum),
		Parallel:             params.Parallel,
		Rules:                doc.Table.Len(),
		Parts:                len(doc.Parts),
		DurationUs:           e.duration.Microseconds(),
	})
}
