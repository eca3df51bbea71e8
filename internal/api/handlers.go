package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"spendsense/internal/domain"
	"spendsense/internal/feed"
	"spendsense/internal/service"
	"spendsense/pkg/money"
)

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status, db, code := "healthy", "healthy", http.StatusOK
	if h.DB == nil || h.DB.Ping(ctx) != nil {
		status, db, code = "unhealthy", "unhealthy", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]string{
		"status":   status,
		"service":  h.ServiceName,
		"database": db,
	})
}

// --- records ---

type predictBulkRequest struct {
	UID      string              `json:"uid"`
	Messages []domain.SMSMessage `json:"messages"`
}

func (h *handler) predictBulk(w http.ResponseWriter, r *http.Request) {
	var req predictBulkRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	records, err := h.Records.Ingest(r.Context(), req.UID, req.Messages)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *handler) listRecords(w http.ResponseWriter, r *http.Request) {
	verr := domain.NewValidationError()
	limit := intQuery(r, "limit", verr)
	offset := intQuery(r, "offset", verr)
	if err := verr.OrNil(); err != nil {
		writeError(w, r, err)
		return
	}

	uid := urlParam(r, "id")
	records, err := h.Records.List(r.Context(), uid, limit, offset)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

type categoryRequest struct {
	Category string `json:"category"`
}

func (h *handler) updateRecordCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Records.UpdateCategory(r.Context(), id, req.Category); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Category updated")
}

func (h *handler) deleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Records.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Record deleted")
}

type classifyRequest struct {
	Messages []string `json:"messages"`
}

func (h *handler) classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	results, err := h.Records.ClassifyModes(r.Context(), req.Messages)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// --- bills ---

type parseBillsRequest struct {
	UID      string               `json:"uid"`
	Messages []domain.BillMessage `json:"messages"`
}

func (h *handler) parseBills(w http.ResponseWriter, r *http.Request) {
	var req parseBillsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	bills, err := h.Bills.ParseSMS(r.Context(), req.UID, req.Messages)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"parsed_bills": bills})
}

func (h *handler) listBills(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bills, err := h.Bills.List(r.Context(), q.Get("uid"), q.Get("filter"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bills)
}

type billStatusRequest struct {
	Status string `json:"status"`
}

func (h *handler) updateBillStatus(w http.ResponseWriter, r *http.Request) {
	var req billStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Bills.UpdateStatus(r.Context(), urlParam(r, "id"), req.Status); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Bill status updated")
}

// --- spending ---

func (h *handler) categorySpending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data, err := h.Spending.ByCategory(r.Context(), q.Get("uid"), q.Get("type"), q.Get("period"), q.Get("sort"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "success", "data": data})
}

// --- budgets ---

type createBudgetRequest struct {
	UID      string        `json:"uid"`
	Name     string        `json:"name"`
	Cap      *money.Amount `json:"cap"`
	Currency string        `json:"currency"`
	Period   string        `json:"period"`
}

func (h *handler) createBudget(w http.ResponseWriter, r *http.Request) {
	var req createBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id, err := h.Budgets.Create(r.Context(), service.BudgetInput{
		UID:      req.UID,
		Name:     req.Name,
		Cap:      req.Cap,
		Currency: req.Currency,
		Period:   req.Period,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "Budget created", "id": id})
}

func (h *handler) listBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := h.Budgets.List(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": budgets})
}

type updateBudgetRequest struct {
	Name     *string       `json:"name"`
	Cap      *money.Amount `json:"cap"`
	Currency *string       `json:"currency"`
	Period   *string       `json:"period"`
}

func (h *handler) updateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req updateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	patch := domain.BudgetPatch{Name: req.Name, Cap: req.Cap, Currency: req.Currency}
	if req.Period != nil {
		p := domain.Period(*req.Period)
		patch.Period = &p
	}
	if err := h.Budgets.Update(r.Context(), id, patch); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Budget updated")
}

func (h *handler) deleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Budgets.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "Budget deleted")
}

func (h *handler) budgetStatus(w http.ResponseWriter, r *http.Request) {
	statuses, err := h.Budgets.Status(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": statuses})
}

// --- flows ---

type parseFlowsRequest struct {
	Text string `json:"text"`
}

func (h *handler) parseFlows(w http.ResponseWriter, r *http.Request) {
	var req parseFlowsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	drafts, err := h.Flows.Parse(req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flows": drafts})
}

type saveFlowsRequest struct {
	UID   string            `json:"uid"`
	Text  string            `json:"text"`
	Flows []domain.CashFlow `json:"flows"`
}

func (h *handler) saveFlows(w http.ResponseWriter, r *http.Request) {
	var req saveFlowsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		saved []domain.CashFlow
		err   error
	)
	if req.Flows != nil {
		saved, err = h.Flows.Save(r.Context(), req.UID, req.Flows)
	} else {
		saved, err = h.Flows.SaveText(r.Context(), req.UID, req.Text)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"flows": saved})
}

func (h *handler) listFlows(w http.ResponseWriter, r *http.Request) {
	flows, err := h.Flows.List(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"flows": flows})
}

// --- feed ---

func (h *handler) feed(w http.ResponseWriter, r *http.Request) {
	uid := strings.TrimSpace(r.URL.Query().Get("uid"))
	if uid == "" {
		writeError(w, r, domain.Invalid("uid", "required field"))
		return
	}
	if err := h.Hub.ServeWS(w, r, uid); err != nil {
		if errors.Is(err, feed.ErrStopped) {
			writeFailure(w, http.StatusServiceUnavailable, "Feed unavailable", nil)
		}
		// Upgrade failures have already been answered by the upgrader.
	}
}
