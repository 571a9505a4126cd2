package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/edirooss/codeeval-server/internal/evalmodel"
	"github.com/edirooss/codeeval-server/internal/httpapi/middleware"
	"github.com/edirooss/codeeval-server/internal/verdictcache"
	"github.com/edirooss/codeeval-server/pkg/jsonx"
)

// health handles GET /health. It carries no dependency checks: the
// service's one dependency, Redis, degrades to "cache disabled" rather
// than "unhealthy" (§7), so there is nothing further worth reporting.
// Response shape matches the original service's BasicResponse literally
// (status=true, msg="healthy").
func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": true, "msg": "healthy"})
}

// evaluationRequest is the wire shape of POST /evaluations, decoded
// strictly so an unrecognized field is rejected rather than silently
// ignored.
type evaluationRequest = evalmodel.Sample

// evaluationResponse is what a caller gets back for one Sample: the
// verdict's status/msg at the response root plus the resource metrics
// under data, or null data when nothing was collected (§6).
type evaluationResponse struct {
	Status bool                       `json:"status"`
	Msg    string                     `json:"msg"`
	Data   *evalmodel.ResourceMetrics `json:"data"`
}

func newEvaluationResponse(verdict evalmodel.Verdict, stats evalmodel.ResourceStats, collected bool) evaluationResponse {
	resp := evaluationResponse{Status: verdict.Status, Msg: verdict.Msg}
	if collected {
		metrics := stats.ToMetrics()
		resp.Data = &metrics
	}
	return resp
}

// evaluate handles POST /evaluations: binds one Sample, dispatches it
// to the appropriate language runner, and returns the Verdict plus
// resource telemetry (§6).
func (s *Server) evaluate(c *gin.Context) {
	var req evaluationRequest
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	req.ApplyDefaults()

	if req.UUID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "uuid is required"})
		return
	}
	log := s.log.With(zap.String("uuid", req.UUID), zap.String("request_id", middleware.GetRequestID(c)))

	if req.Test != nil {
		if err := req.Test.Validate(); err != nil {
			// §8: inputs/outputs length mismatch is verdict content, not a
			// transport error — no child is spawned or compiled for it.
			c.JSON(http.StatusOK, newEvaluationResponse(evalmodel.Failedf("%s", err), evalmodel.ResourceStats{}, false))
			return
		}
	}

	if s.cache != nil {
		if verdict, stats, err := s.cache.Get(c.Request.Context(), req.UUID); err == nil {
			c.Header("X-Cache", "HIT")
			c.JSON(http.StatusOK, newEvaluationResponse(verdict, stats, true))
			return
		} else if !errors.Is(err, verdictcache.ErrMiss) {
			log.Warn("verdict cache read failed", zap.Error(err))
		}
	}

	runner, timeout, err := s.dispatcher.Resolve(&req)
	if err != nil {
		// §7.3: a dispatcher refusal is returned synchronously as
		// status=false with the precise reason, HTTP 200 — not a 4xx.
		c.JSON(http.StatusOK, newEvaluationResponse(evalmodel.Failedf("%s", err), evalmodel.ResourceStats{}, false))
		return
	}

	verdict, stats := s.runEvaluation(c, runner, req, timeout)

	log.Info("evaluation complete",
		zap.String("source", string(req.Source)),
		zap.String("lang", string(req.Lang)),
		zap.Duration("timeout", timeout),
		zap.Int("memory_limit", req.MemoryLimit),
		zap.Any("kwargs", req.Kwargs),
		zap.Bool("status", verdict.Status),
		zap.String("msg", verdict.Msg),
		zap.Float64("avg_cpu_percent", stats.CPUPercent),
		zap.Float64("peak_cpu_percent", stats.PeakCPUPercent),
		zap.Float64("avg_memory_mb", stats.MemoryMB),
		zap.Float64("peak_memory_mb", stats.PeakMemoryMB),
	)

	if s.cache != nil {
		s.cache.Set(c.Request.Context(), req.UUID, verdict, stats)
	}

	c.Header("X-Cache", "MISS")
	c.JSON(http.StatusOK, newEvaluationResponse(verdict, stats, true))
}
