package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"area-locator/internal/aggregator"
	"area-locator/internal/area"
	"area-locator/internal/catalog"
	"area-locator/internal/models"
)

const (
	maxCatalogBytes = 1 << 20
	maxSmallBody    = 64 << 10
)

// CatalogUpdater validates, installs and persists a catalog
type CatalogUpdater interface {
	ApplyCatalog(ctx context.Context, c models.AreaCatalog) error
}

// Server exposes tracker state and control over HTTP
type Server struct {
	registry *aggregator.Registry
	catalogs CatalogUpdater
	drift    *aggregator.DriftDetector
	hotspot  *aggregator.Hotspot
	now      func() time.Time
}

// NewServer creates the HTTP API. drift and hotspot may be nil, which
// leaves their routes out.
func NewServer(
	registry *aggregator.Registry,
	catalogs CatalogUpdater,
	drift *aggregator.DriftDetector,
	hotspot *aggregator.Hotspot,
) *Server {
	return &Server{
		registry: registry,
		catalogs: catalogs,
		drift:    drift,
		hotspot:  hotspot,
		now:      time.Now,
	}
}

// deviceStatus is the JSON view of one tracker
type deviceStatus struct {
	DeviceID string `json:"device_id"`
	area.Status
}

// NewRouter builds the routes
func (s *Server) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)
	r.HandleFunc("/devices", s.listDevices).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}/area", s.getDeviceArea).Methods(http.MethodGet)
	r.HandleFunc("/devices/{id}/disable", s.disableDevice).Methods(http.MethodPost)
	r.HandleFunc("/areas", s.getAreas).Methods(http.MethodGet)
	r.HandleFunc("/areas", s.putAreas).Methods(http.MethodPut)

	r.HandleFunc("/devices/{id}/averages", s.getDeviceAverages).Methods(http.MethodGet)
	r.HandleFunc("/emitters/averages", s.getEmitterAverages).Methods(http.MethodGet)

	if s.drift != nil {
		r.HandleFunc("/emitters/watched", s.getWatched).Methods(http.MethodGet)
		r.HandleFunc("/emitters/watched", s.putWatched).Methods(http.MethodPut)
		r.HandleFunc("/emitters/excluded", s.getExcluded).Methods(http.MethodGet)
	}

	if s.hotspot != nil {
		r.HandleFunc("/hotspot", s.getHotspot).Methods(http.MethodGet)
		r.HandleFunc("/hotspot", s.clearHotspot).Methods(http.MethodDelete)
		r.HandleFunc("/hotspot/history", s.getHotspotHistory).Methods(http.MethodGet)
		r.HandleFunc("/hotspot/name", s.putHotspotName).Methods(http.MethodPut)
		r.HandleFunc("/hotspot/age", s.putHotspotAge).Methods(http.MethodPut)
	}

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"devices": s.registry.Devices()})
}

func (s *Server) getDeviceArea(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok := s.registry.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown device")
		return
	}
	writeJSON(w, http.StatusOK, deviceStatus{DeviceID: id, Status: t.Status()})
}

func (s *Server) disableDevice(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok := s.registry.Disable(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown device")
		return
	}
	log.Printf("API: tracking disabled for %s", id)
	writeJSON(w, http.StatusOK, deviceStatus{DeviceID: id, Status: t.Status()})
}

func (s *Server) getAreas(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, models.CatalogPayload{Areas: s.registry.Catalog()})
}

func (s *Server) putAreas(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxCatalogBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}

	c, err := catalog.Parse(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.catalogs.ApplyCatalog(r.Context(), c); err != nil {
		if isValidationError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		// applied in memory, storage failed
		log.Printf("API: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, models.CatalogPayload{Areas: s.registry.Catalog()})
}

func (s *Server) getDeviceAverages(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, ok := s.registry.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown device")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"device_id": id,
		"averages":  t.Averages(s.now()),
	})
}

func (s *Server) getEmitterAverages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"averages": s.registry.Averages(s.now())})
}

type watchedView struct {
	Watched   aggregator.WatchList       `json:"watched"`
	Reference aggregator.EmitterAverages `json:"reference"`
	TakenAt   time.Time                  `json:"taken_at"`
}

func (s *Server) getWatched(w http.ResponseWriter, _ *http.Request) {
	watched, reference, takenAt := s.drift.Watched()
	writeJSON(w, http.StatusOK, watchedView{Watched: watched, Reference: reference, TakenAt: takenAt})
}

func (s *Server) putWatched(w http.ResponseWriter, r *http.Request) {
	var watched aggregator.WatchList
	if !decodeBody(w, r, &watched) {
		return
	}
	for tech := range watched {
		if tech != models.TechnologyWiFi && tech != models.TechnologyBLE {
			writeError(w, http.StatusBadRequest, "unknown technology "+string(tech))
			return
		}
	}

	s.drift.Watch(watched, s.now())
	s.getWatched(w, r)
}

func (s *Server) getExcluded(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.drift.Excluded(s.now()))
}

type hotspotView struct {
	Name      string                       `json:"name"`
	MaxAge    string                       `json:"max_age"`
	Sightings []aggregator.HotspotSighting `json:"sightings"`
}

func (s *Server) getHotspot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, hotspotView{
		Name:      s.hotspot.Name(),
		MaxAge:    s.hotspot.MaxAge().String(),
		Sightings: s.hotspot.Recent(s.now()),
	})
}

func (s *Server) getHotspotHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, hotspotView{
		Name:      s.hotspot.Name(),
		MaxAge:    s.hotspot.MaxAge().String(),
		Sightings: s.hotspot.History(),
	})
}

func (s *Server) clearHotspot(w http.ResponseWriter, _ *http.Request) {
	s.hotspot.Clear()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) putHotspotName(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	s.hotspot.SetName(body.Name)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "name": body.Name})
}

func (s *Server) putHotspotAge(w http.ResponseWriter, r *http.Request) {
	var body struct {
		MaxAge string `json:"max_age"`
	}
	if !decodeBody(w, r, &body) {
		return
	}
	d, err := time.ParseDuration(body.MaxAge)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.hotspot.SetMaxAge(d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "max_age": d.String()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxSmallBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func isValidationError(err error) bool {
	return errors.Is(err, catalog.ErrInvalidRange) ||
		errors.Is(err, catalog.ErrEmptyEmitter) ||
		errors.Is(err, catalog.ErrEmptyArea)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("API: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
