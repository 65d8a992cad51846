package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/dparitosh/recipe-organizer-sub000/internal/domain"
)

// nutritionLabelBody carries the already-computed nutrient values; this
// handler only versions and persists them, it does not compute them.
type nutritionLabelBody struct {
	Calories            float64        `json:"calories"`
	Nutrients           map[string]any `json:"nutrients"`
	AdditionalNutrients map[string]any `json:"additionalNutrients"`
	GeneratedBy         string         `json:"generatedBy"`
}

func handleSaveNutritionLabel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		formulationID := r.PathValue("formulationId")
		q := r.URL.Query()

		servingSize, err := strconv.ParseFloat(q.Get("serving_size"), 64)
		if err != nil {
			respondError(w, domain.NewValidationError("serving_size", q.Get("serving_size"), domain.ErrInvalidBatch), start)
			return
		}
		servingSizeUnit := q.Get("serving_size_unit")
		if servingSizeUnit == "" {
			respondError(w, domain.NewValidationError("serving_size_unit", "", domain.ErrUnitNotAllowed), start)
			return
		}

		var body nutritionLabelBody
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&body)
		}

		label := domain.NutritionLabel{
			FormulationID:       formulationID,
			ServingSize:         servingSize,
			ServingSizeUnit:     servingSizeUnit,
			Calories:            body.Calories,
			Nutrients:           body.Nutrients,
			AdditionalNutrients: body.AdditionalNutrients,
			GeneratedBy:         body.GeneratedBy,
		}
		if v := q.Get("servings_per_container"); v != "" {
			if spc, err := strconv.ParseFloat(v, 64); err == nil {
				label.ServingsPerContainer = &spc
			}
		}

		saveToNeo4j := true
		if v := q.Get("save_to_neo4j"); v != "" {
			if parsed, err := strconv.ParseBool(v); err == nil {
				saveToNeo4j = parsed
			}
		}

		if !saveToNeo4j {
			label.GeneratedAt = time.Now().UTC()
			writeSuccess(w, http.StatusOK, label, nil, start)
			return
		}

		saved, err := d.Nutrition.Save(r.Context(), formulationID, label, label.GeneratedBy)
		if err != nil {
			respondError(w, err, start)
			return
		}
		writeSuccess(w, http.StatusOK, saved, nil, start)
	}
}

func handleNutritionHistory(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		formulationID := r.PathValue("formulationId")

		limit := 0
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
			limit = v
		}

		labels, err := d.Nutrition.History(r.Context(), formulationID, limit)
		if err != nil {
			respondError(w, err, start)
			return
		}
		writeSuccess(w, http.StatusOK, labels, nil, start)
	}
}

func handleGetLabel(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		labelID := r.PathValue("labelId")

		label, err := d.Nutrition.GetByID(r.Context(), labelID)
		if err != nil {
			respondError(w, err, start)
			return
		}
		writeSuccess(w, http.StatusOK, label, nil, start)
	}
}
