// SPDX-License-Identifier: EUPL-1.2

package mockengine

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/quintel/goetm/models"
)

func savedID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "savedID"))
	return id, err == nil
}

func savedNotFound(w http.ResponseWriter) {
	writeErrors(w, http.StatusNotFound, "Saved scenario not found")
}

func (e *Engine) handleListSavedScenarios(w http.ResponseWriter, r *http.Request) {
	if _, ok := e.authorize(w, r, "scenarios:read"); !ok {
		return
	}

	e.mu.RLock()
	docs := make([]models.SavedScenario, 0, len(e.saved))
	for _, saved := range e.saved {
		docs = append(docs, *saved)
	}
	e.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID > docs[j].ID })

	page, limit := pageParams(r)
	total := len(docs)
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": docs[start:end],
		"meta": map[string]int{"total": total},
	})
}

func (e *Engine) handleCreateSavedScenario(w http.ResponseWriter, r *http.Request) {
	if _, ok := e.authorize(w, r, "scenarios:write"); !ok {
		return
	}

	var body struct {
		ScenarioID  int    `json:"scenario_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Private     *bool  `json:"private"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeErrors(w, http.StatusUnprocessableEntity, "Request body is not valid JSON")
		return
	}
	if body.Title == "" {
		writeErrors(w, http.StatusUnprocessableEntity, "Title can't be blank")
		return
	}

	e.mu.Lock()
	scenario, found := e.scenarios[body.ScenarioID]
	if !found {
		e.mu.Unlock()
		scenarioNotFound(w)
		return
	}

	now := time.Now().UTC()
	saved := &models.SavedScenario{
		ID:          e.nextSavedID,
		ScenarioID:  body.ScenarioID,
		Title:       body.Title,
		Description: body.Description,
		AreaCode:    scenario.doc.AreaCode,
		EndYear:     scenario.doc.EndYear,
		CreatedAt:   &now,
		UpdatedAt:   &now,
	}
	if body.Private != nil {
		saved.Private = *body.Private
	}
	e.nextSavedID++
	e.saved[saved.ID] = saved
	doc := *saved
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func (e *Engine) handleGetSavedScenario(w http.ResponseWriter, r *http.Request) {
	id, ok := savedID(r)
	if !ok {
		savedNotFound(w)
		return
	}

	e.mu.RLock()
	saved, found := e.saved[id]
	var doc models.SavedScenario
	if found {
		doc = *saved
	}
	e.mu.RUnlock()

	if !found {
		savedNotFound(w)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleUpdateSavedScenario repoints a saved scenario at a new scenario id.
// The previous id moves to the front of the history.
func (e *Engine) handleUpdateSavedScenario(w http.ResponseWriter, r *http.Request) {
	if _, ok := e.authorize(w, r, "scenarios:write"); !ok {
		return
	}
	id, ok := savedID(r)
	if !ok {
		savedNotFound(w)
		return
	}

	var body struct {
		ScenarioID int `json:"scenario_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ScenarioID == 0 {
		writeErrors(w, http.StatusUnprocessableEntity, "Scenario id can't be blank")
		return
	}

	e.mu.Lock()
	saved, found := e.saved[id]
	if !found {
		e.mu.Unlock()
		savedNotFound(w)
		return
	}
	if _, ok := e.scenarios[body.ScenarioID]; !ok {
		e.mu.Unlock()
		scenarioNotFound(w)
		return
	}

	saved.ScenarioIDHistory = append([]int{saved.ScenarioID}, saved.ScenarioIDHistory...)
	saved.ScenarioID = body.ScenarioID
	now := time.Now().UTC()
	saved.UpdatedAt = &now
	doc := *saved
	e.mu.Unlock()

	writeJSON(w, http.StatusOK, doc)
}

func (e *Engine) handleDeleteSavedScenario(w http.ResponseWriter, r *http.Request) {
	if _, ok := e.authorize(w, r, "scenarios:delete"); !ok {
		return
	}
	id, ok := savedID(r)
	if !ok {
		savedNotFound(w)
		return
	}

	e.mu.Lock()
	_, found := e.saved[id]
	delete(e.saved, id)
	e.mu.Unlock()

	if !found {
		savedNotFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleTokenInfo serves the doorkeeper token introspection document.
func (e *Engine) handleTokenInfo(w http.ResponseWriter, r *http.Request) {
	g, ok := e.authorize(w, r, "")
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"resource_owner_id": g.ownerID,
		"scope":             g.scopes,
		"expires_in":        nil,
		"created_at":        g.createdAt.Unix(),
	})
}

func (e *Engine) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	g, ok := e.authorize(w, r, "openid")
	if !ok {
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"sub":   strconv.Itoa(g.ownerID),
		"name":  g.name,
		"email": g.email,
	})
}

// handleTransitionPaths serves the engine's public transition paths. The
// documents mirror the saved scenario index entries.
func (e *Engine) handleTransitionPaths(w http.ResponseWriter, r *http.Request) {
	if _, ok := e.authorize(w, r, "scenarios:read"); !ok {
		return
	}

	e.mu.RLock()
	paths := make([]map[string]any, 0, len(e.saved))
	for _, saved := range e.saved {
		paths = append(paths, map[string]any{
			"id":        saved.ID,
			"title":     saved.Title,
			"area_code": saved.AreaCode,
			"end_year":  saved.EndYear,
		})
	}
	e.mu.RUnlock()

	sort.Slice(paths, func(i, j int) bool {
		return paths[i]["id"].(int) > paths[j]["id"].(int)
	})
	writeJSON(w, http.StatusOK, paths)
}
