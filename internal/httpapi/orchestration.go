package httpapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
	"github.com/dparitosh/recipe-organizer-sub000/internal/history"
	"github.com/dparitosh/recipe-organizer-sub000/internal/orchestrator"
)

type runRequestBody struct {
	UserRequest string `json:"userRequest"`
	Batch       *struct {
		Size float64 `json:"size"`
		Unit string  `json:"unit"`
	} `json:"batch,omitempty"`
}

func handleRunOrchestration(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		release, err := d.Admission.Acquire(r.Context(), admissionWait)
		if err != nil {
			respondError(w, err, start)
			return
		}
		defer release()

		var body runRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			respondError(w, domain.NewValidationError("body", "", domain.ErrNoOperations), start)
			return
		}

		req := orchestrator.Request{UserRequest: body.UserRequest}
		if body.Batch != nil {
			req.Batch = &domain.Batch{Size: body.Batch.Size, Unit: body.Batch.Unit}
		}

		result, err := d.Orchestrator.Run(r.Context(), req)
		if err != nil {
			respondError(w, err, start)
			return
		}

		status := http.StatusOK
		if result.Status == domain.RunFailed {
			status = http.StatusUnprocessableEntity
		}
		writeSuccess(w, status, result, nil, start)
	}
}

func handleListRuns(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		filter := historyFilterFromQuery(r.URL.Query())
		runs, err := d.History.ListRuns(r.Context(), filter)
		if err != nil {
			respondError(w, err, start)
			return
		}
		writeSuccess(w, http.StatusOK, runs, nil, start)
	}
}

func handleGetRun(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		runID := r.PathValue("runId")

		run, err := d.History.GetRun(r.Context(), runID)
		if err != nil {
			respondError(w, err, start)
			return
		}
		writeSuccess(w, http.StatusOK, run, nil, start)
	}
}

func historyFilterFromQuery(q url.Values) history.ListFilter {
	f := history.ListFilter{Status: q.Get("status")}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil {
		f.Offset = v
	}
	if v := q.Get("start_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.StartDate = &t
		}
	}
	if v := q.Get("end_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.EndDate = &t
		}
	}
	return f
}
