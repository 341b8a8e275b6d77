package handlers

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"offerhub-backend/cache"
	"offerhub-backend/constants"
	"offerhub-backend/database"
	"offerhub-backend/models"
	"offerhub-backend/utils"
)

// DefaultSummaryPeriod est la période du résumé quand from est absent
const DefaultSummaryPeriod = 7 * 24 * time.Hour

// ReportHandler gère l'ingestion et la lecture des événements de reporting
type ReportHandler struct {
	reports ReportStore
	cache   Cache
	now     func() time.Time
}

// NewReportHandler crée une nouvelle instance de ReportHandler
func NewReportHandler(reports ReportStore, c Cache) *ReportHandler {
	return &ReportHandler{reports: reports, cache: c, now: time.Now}
}

// Ingest accepte un événement seul ou un lot {"events": [...]}
func (h *ReportHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var batch models.ReportEventBatch
	if !decodeJSON(w, r, &batch) {
		return
	}

	if len(batch.Events) == 0 {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrNoEvents)
		return
	}
	if len(batch.Events) > models.MaxEventBatch {
		utils.RespondError(w, http.StatusBadRequest, constants.ErrTooManyEvents)
		return
	}

	now := h.now().UTC()
	events := make([]models.ReportEvent, 0, len(batch.Events))
	var errs utils.ValidationErrors
	for i, in := range batch.Events {
		event := in.ToEvent(userID, now)
		if err := event.Validate(); err != nil {
			if verrs, ok := err.(utils.ValidationErrors); ok {
				for _, e := range verrs {
					e.Field = fmt.Sprintf("events[%d].%s", i, e.Field)
					errs = append(errs, e)
				}
			}
			continue
		}
		events = append(events, event)
	}
	if len(errs) > 0 {
		utils.RespondValidation(w, errs)
		return
	}

	inserted, err := h.reports.InsertMany(r.Context(), events)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	if h.cache != nil {
		if err := h.cache.InvalidateReports(r.Context()); err != nil {
			log.Printf("⚠️  Invalidation des résumés impossible: %v", err)
		}
	}

	utils.RespondCreated(w, "", map[string]int{"inserted": inserted})
}

// List liste les événements (filtres type, source, user, from, to)
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	q := utils.ParseListQuery(r.URL.Query(), database.ReportSorts, "-occurred_at")
	events, total, err := h.reports.List(r.Context(), q)
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	respondPage(w, events, q, total)
}

// summaryPeriod lit from/to; to vaut maintenant et from to-7j par défaut
func (h *ReportHandler) summaryPeriod(r *http.Request) (time.Time, time.Time, error) {
	var errs utils.ValidationErrors

	to := h.now().UTC().Truncate(time.Minute)
	if raw := r.URL.Query().Get("to"); raw != "" {
		parsed, err := models.ParseFlexibleTime(raw)
		if err != nil {
			errs.Add(utils.ValidationError{Field: "to", Message: err.Error()})
		} else {
			to = parsed.Time
		}
	}
	from := to.Add(-DefaultSummaryPeriod)
	if raw := r.URL.Query().Get("from"); raw != "" {
		parsed, err := models.ParseFlexibleTime(raw)
		if err != nil {
			errs.Add(utils.ValidationError{Field: "from", Message: err.Error()})
		} else {
			from = parsed.Time
		}
	}
	if len(errs) == 0 && !from.Before(to) {
		errs.Add(utils.ValidationError{Field: "from", Message: constants.ErrInvalidPeriod})
	}
	return from, to, errs.OrNil()
}

// Summary compte les événements par type et par jour (cache Redis)
func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, to, err := h.summaryPeriod(r)
	if err != nil {
		respondError(w, r, err, "")
		return
	}

	summary, err := cached(r.Context(), h.cache, cache.ReportSummaryKey(from, to), func() (*models.ReportSummary, error) {
		return h.reports.Summary(r.Context(), from, to)
	})
	if err != nil {
		respondError(w, r, err, "")
		return
	}
	utils.RespondSuccess(w, "", summary)
}
