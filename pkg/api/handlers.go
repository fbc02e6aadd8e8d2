package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kgibm/resume"
	"github.com/kgibm/resume/pkg/checkpoint"
	"github.com/rcrowley/go-metrics"
)

// healthReporter is implemented by strategies with a background refresher.
type healthReporter interface {
	Healthy() bool
}

func (this *Server) handleAPIStat(w http.ResponseWriter, r *http.Request, params map[string]interface{}) (interface{}, error) {
	var output = make(map[string]interface{})
	output["ver"] = resume.Version
	output["name"] = this.name
	output["status"] = this.strategy.Status().String()
	output["started"] = this.startedAt
	output["elapsed"] = time.Since(this.startedAt).String()
	output["pid"] = this.pid
	output["hostname"] = this.hostname
	output["revision"] = resume.Revision
	return output, nil
}

func (this *Server) handleAPIMetrics(w http.ResponseWriter, r *http.Request, params map[string]interface{}) (interface{}, error) {
	return metrics.DefaultRegistry.GetAll(), nil
}

func (this *Server) handleAPIOffsets(w http.ResponseWriter, r *http.Request, params map[string]interface{}) (interface{}, error) {
	mgr, ok := this.strategy.(checkpoint.Manager[string, string])
	if !ok {
		return nil, &statusError{code: http.StatusNotImplemented, err: fmt.Errorf("%s cannot dump offsets", this.name)}
	}

	offsets := make(map[string]string)
	mgr.ForEach(func(key, value string) bool {
		offsets[key] = value
		return true
	})
	return offsets, nil
}

func (this *Server) handleAPIGetOffset(w http.ResponseWriter, r *http.Request, params map[string]interface{}) (interface{}, error) {
	key, err := keyOf(r)
	if err != nil {
		return nil, err
	}

	offset, ok := this.strategy.LastOffset(key)
	if !ok {
		return nil, notFound(fmt.Errorf("no offset of %s", key))
	}

	return map[string]string{"key": key, "offset": offset}, nil
}

func (this *Server) handleAPISetOffset(w http.ResponseWriter, r *http.Request, params map[string]interface{}) (interface{}, error) {
	key, err := keyOf(r)
	if err != nil {
		return nil, err
	}

	offset, ok := params["offset"].(string)
	if !ok || offset == "" {
		return nil, badRequest(errOffsetMissing)
	}

	if err = this.strategy.UpdateLastOffset(r.Context(), checkpoint.NewPositionAt(key, offset)); err != nil {
		return nil, err
	}

	return map[string]string{"key": key, "offset": offset}, nil
}

func (this *Server) handleAPIHealth(w http.ResponseWriter, r *http.Request, params map[string]interface{}) (interface{}, error) {
	status := this.strategy.Status()
	if status != checkpoint.Started {
		return nil, unavailable(fmt.Errorf("strategy %s", status))
	}

	output := map[string]interface{}{"status": status.String()}
	if h, ok := this.strategy.(healthReporter); ok {
		if !h.Healthy() {
			return nil, unavailable(fmt.Errorf("refresher not running"))
		}
		output["refresher"] = true
	}

	return output, nil
}
