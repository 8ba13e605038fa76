package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"strategos-hq/verdict/pkg/audit"
	"strategos-hq/verdict/pkg/condition"
	"strategos-hq/verdict/pkg/condition/engine"
	"strategos-hq/verdict/pkg/ruleset"
	"strategos-hq/verdict/pkg/ruleset/source"
	"strategos-hq/verdict/pkg/telemetry/logging"
)

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	body := http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, ErrorTypeInvalidRequest,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, r, http.StatusBadRequest, ErrorTypeInvalidRequest, "invalid JSON body: "+err.Error())
		return
	}
	if len(req.Roots) == 0 {
		s.writeError(w, r, http.StatusBadRequest, ErrorTypeInvalidRequest, "roots must not be empty")
		return
	}

	bundle, ok := s.currentBundle(w, r)
	if !ok {
		return
	}

	roots, err := bundle.Roots(req.Roots)
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	memo := engine.NewMemo()
	if err := memo.Seed(bundle.Registry, req.Facts); err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	ctx := logging.WithPassID(r.Context(), memo.PassID())
	ctx = logging.WithRuleSet(ctx, bundle.Name)

	result, err := s.evaluator.Evaluate(ctx, &engine.Request{
		RuleSet: bundle.Name,
		Version: bundle.Version,
		Roots:   roots,
		Memo:    memo,
	})
	if err != nil {
		s.writeEngineError(w, r, err)
		return
	}

	resp := EvaluateResponse{
		PassID:     result.PassID,
		RuleSet:    result.RuleSet,
		Version:    result.Version,
		Revision:   bundle.Revision,
		Roots:      make([]RootResponse, 0, len(result.Roots)),
		NodeCount:  result.NodeCount,
		Evaluated:  result.Evaluated,
		Seeded:     result.Seeded,
		DurationMS: float64(result.Duration) / float64(time.Millisecond),
		Trace:      result.Trace,
	}
	for _, root := range result.Roots {
		resp.Roots = append(resp.Roots, RootResponse{
			Key:       root.Key,
			Name:      root.Name,
			Owner:     root.Owner,
			Satisfied: root.Satisfied,
			Chance:    root.Chance.String(),
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConditions(w http.ResponseWriter, r *http.Request) {
	bundle, ok := s.currentBundle(w, r)
	if !ok {
		return
	}

	player := r.URL.Query().Get("player")

	resp := ConditionsResponse{
		RuleSet:    bundle.Name,
		Version:    bundle.Version,
		Revision:   bundle.Revision,
		Conditions: []ConditionResponse{},
	}
	for _, n := range bundle.Registry.Nodes() {
		if player != "" && n.Owner() != player {
			continue
		}
		children := make([]string, 0, len(n.Children()))
		for _, c := range n.Children() {
			children = append(children, c.Key())
		}
		resp.Conditions = append(resp.Conditions, ConditionResponse{
			Key:      n.Key(),
			Owner:    n.Owner(),
			Name:     n.Name(),
			Policy:   n.Policy().String(),
			Invert:   n.Invert(),
			Chance:   n.Chance().String(),
			Children: children,
		})
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRuleSet(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, ruleSetResponse(s.rules.Status()))
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if _, err := s.rules.Reload(r.Context()); err != nil {
		s.writeError(w, r, http.StatusUnprocessableEntity, ErrorTypeInvalidRequest, "reload failed: "+err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ruleSetResponse(s.rules.Status()))
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		s.writeError(w, r, http.StatusNotFound, ErrorTypeNotFound, "audit trail is not enabled")
		return
	}

	q, err := parseAuditQuery(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}

	records, err := s.audit.Query(r.Context(), q)
	if err == nil {
		var total int64
		total, err = s.audit.Count(r.Context(), q)
		if err == nil {
			s.writeJSON(w, http.StatusOK, AuditResponse{Total: total, Records: records})
			return
		}
	}
	if errors.Is(err, audit.ErrInvalidQuery) {
		s.writeError(w, r, http.StatusBadRequest, ErrorTypeInvalidRequest, err.Error())
		return
	}
	s.writeError(w, r, http.StatusInternalServerError, ErrorTypeServer, "audit query failed")
	s.logger.ErrorContext(r.Context(), "audit query failed", "error", err)
}

func parseAuditQuery(r *http.Request) (*audit.Query, error) {
	v := r.URL.Query()
	q := &audit.Query{
		RuleSet: v.Get("ruleset"),
		PassID:  v.Get("pass_id"),
		Status:  v.Get("status"),
	}

	for name, dst := range map[string]**time.Time{"since": &q.StartTime, "until": &q.EndTime} {
		if raw := v.Get(name); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: must be RFC 3339", name)
			}
			*dst = &t
		}
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		if raw := v.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: must be an integer", name)
			}
			*dst = n
		}
	}
	return q, nil
}

func ruleSetResponse(st source.Status) RuleSetResponse {
	resp := RuleSetResponse{
		Source:     st.Source,
		Name:       st.Name,
		Version:    st.Version,
		Revision:   st.Revision,
		Notes:      st.Notes,
		Conditions: st.Conditions,
		LoadedAt:   st.LoadedAt,
		Reloads:    st.Reloads,
		Failures:   st.Failures,
	}
	if st.LastError != nil {
		resp.LastError = st.LastError.Error()
	}
	return resp
}

func (s *Server) currentBundle(w http.ResponseWriter, r *http.Request) (*ruleset.Bundle, bool) {
	bundle, err := s.rules.Current()
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, ErrorTypeNotReady, "no rule set loaded")
		return nil, false
	}
	return bundle, true
}

// writeEngineError maps condition and engine errors to HTTP replies.
// statusClientClosedRequest is the nginx convention for a request whose client
// went away before the response was written.
const statusClientClosedRequest = 499

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var timeout *engine.TimeoutError
	switch {
	case errors.Is(err, condition.ErrReferenceNotFound):
		s.writeError(w, r, http.StatusBadRequest, ErrorTypeUnknownCondition, err.Error())
	case errors.Is(err, condition.ErrAmbiguousReference):
		s.writeError(w, r, http.StatusBadRequest, ErrorTypeAmbiguousCondition, err.Error())
	case errors.Is(err, context.Canceled):
		s.logger.DebugContext(r.Context(), "evaluation abandoned by client", "error", err)
		w.WriteHeader(statusClientClosedRequest)
	case errors.As(err, &timeout):
		s.writeError(w, r, http.StatusGatewayTimeout, ErrorTypeTimeout, err.Error())
	case errors.Is(err, condition.ErrCyclicGraph),
		errors.Is(err, condition.ErrPrecondition),
		errors.Is(err, engine.ErrClosureTooLarge):
		s.writeError(w, r, http.StatusUnprocessableEntity, ErrorTypeInvalidGraph, err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "evaluation failed", "error", err)
		s.writeError(w, r, http.StatusInternalServerError, ErrorTypeServer, "evaluation failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, errType, message string) {
	s.logger.DebugContext(r.Context(), "request rejected", "status", status, "type", errType, "message", message)
	s.writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: errType, Message: message}})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}
