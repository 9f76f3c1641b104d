// Package http exposes a debug surface over a running world: compiled
// machine layouts, live instance state, pose samples and Prometheus
// metrics. It is a development tool, not a gameplay transport; hosts
// drive instances through the Go API.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/machine"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/session"
	"github.com/aretw0/espalier/pkg/world"
)

// Server serves the debug API for one engine and its world.
type Server struct {
	engine    *espalier.Engine
	world     *world.World
	snapshots *session.Manager
}

// Option configures the handler.
type Option func(*Server)

// WithSnapshots enables the snapshot routes, backed by the manager's
// store.
func WithSnapshots(m *session.Manager) Option {
	return func(s *Server) { s.snapshots = m }
}

// NewHandler builds the routed debug handler.
func NewHandler(eng *espalier.Engine, w *world.World, opts ...Option) http.Handler {
	s := &Server{engine: eng, world: w}
	for _, opt := range opts {
		opt(s)
	}
	r := chi.NewRouter()

	r.Get("/machines", s.listMachines)
	r.Get("/machines/{layer}", s.getMachine)
	r.Get("/instances", s.listInstances)
	r.Get("/instances/{id}", s.getInstance)
	r.Get("/instances/{id}/samples", s.getSamples)
	r.Post("/instances/{id}/transition", s.postTransition)
	if s.snapshots != nil {
		r.Get("/snapshots", s.listSnapshots)
		r.Delete("/snapshots/{name}", s.deleteSnapshot)
		r.Put("/instances/{id}/snapshots/{name}", s.saveSnapshot)
		r.Post("/instances/{id}/snapshots/{name}/restore", s.restoreSnapshot)
	}
	r.Handle("/metrics", promhttp.Handler())
	return r
}

type machineSummary struct {
	Layer  int `json:"layer"`
	States int `json:"states"`
	Clips  int `json:"clips"`
	Params int `json:"params"`
}

type stateView struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
	Kind  string `json:"kind"`
	Loop  bool   `json:"loop,omitempty"`
}

type machineView struct {
	machineSummary
	StateList []stateView `json:"state_list"`
}

type activeView struct {
	State  int32   `json:"state"`
	Path   string  `json:"path"`
	Weight float32 `json:"weight"`
	Time   float32 `json:"time"`
}

type layerView struct {
	Layer  int          `json:"layer"`
	Weight float32      `json:"weight"`
	Active []activeView `json:"active"`
}

type instanceView struct {
	ID     uint64      `json:"id"`
	Layers []layerView `json:"layers"`
}

type transitionRequest struct {
	Layer    int     `json:"layer"`
	Path     string  `json:"path"`
	Duration float32 `json:"duration"`
}

func (s *Server) listMachines(w http.ResponseWriter, r *http.Request) {
	out := make([]machineSummary, s.engine.Layers())
	for i := range out {
		out[i] = summarize(i, s.engine.Definition(i))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getMachine(w http.ResponseWriter, r *http.Request) {
	layer, err := strconv.Atoi(chi.URLParam(r, "layer"))
	if err != nil {
		http.Error(w, "invalid layer", http.StatusBadRequest)
		return
	}
	def := s.engine.Definition(layer)
	if def == nil {
		http.Error(w, "layer not found", http.StatusNotFound)
		return
	}

	view := machineView{machineSummary: summarize(layer, def)}
	for i := range def.States {
		sd := &def.States[i]
		view.StateList = append(view.StateList, stateView{
			Index: i,
			Path:  sd.Path,
			Kind:  kindName(sd.Kind),
			Loop:  sd.Loop,
		})
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) listInstances(w http.ResponseWriter, r *http.Request) {
	ids := make([]uint64, 0, s.world.Count())
	s.world.ForEach(func(inst *espalier.Instance) {
		ids = append(ids, inst.ID)
	})
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) getInstance(w http.ResponseWriter, r *http.Request) {
	s.withInstance(w, r, func(inst *espalier.Instance) {
		view := instanceView{ID: inst.ID}
		for li := 0; li < inst.LayerCount(); li++ {
			l := inst.Layer(li)
			lv := layerView{Layer: li, Weight: l.Weight}
			for _, a := range l.Mixer().Active() {
				lv.Active = append(lv.Active, activeView{
					State:  a.State,
					Path:   l.Def.States[a.State].Path,
					Weight: a.Weight,
					Time:   a.Time,
				})
			}
			view.Layers = append(view.Layers, lv)
		}
		writeJSON(w, http.StatusOK, view)
	})
}

func (s *Server) getSamples(w http.ResponseWriter, r *http.Request) {
	s.withInstance(w, r, func(inst *espalier.Instance) {
		samples := inst.ComposedSamples()
		if samples == nil {
			samples = []ports.Sample{}
		}
		writeJSON(w, http.StatusOK, samples)
	})
}

func (s *Server) postTransition(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.withInstance(w, r, func(inst *espalier.Instance) {
		if err := s.engine.RequestTransition(inst, req.Layer, req.Path, req.Duration); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
}

func (s *Server) listSnapshots(w http.ResponseWriter, r *http.Request) {
	ids, err := s.snapshots.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *Server) deleteSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := s.snapshots.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) saveSnapshot(w http.ResponseWriter, r *http.Request) {
	var snap *domain.Snapshot
	if !s.withInstance(w, r, func(inst *espalier.Instance) {
		snap = session.Capture(s.engine, inst)
	}) {
		return
	}
	// Store I/O happens outside the step lock.
	if err := s.snapshots.Save(r.Context(), chi.URLParam(r, "name"), snap); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) restoreSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.snapshots.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		if errors.Is(err, domain.ErrSnapshotNotFound) {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.withInstance(w, r, func(inst *espalier.Instance) {
		if err := session.Apply(s.engine, inst, snap); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

// withInstance resolves the instance named in the route and runs fn on
// it through the world's step lock, so handler goroutines never race the
// frame loop. It reports whether fn ran.
func (s *Server) withInstance(w http.ResponseWriter, r *http.Request, fn func(*espalier.Instance)) bool {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid instance id", http.StatusBadRequest)
		return false
	}
	if !s.world.Visit(id, fn) {
		http.Error(w, "instance not found", http.StatusNotFound)
		return false
	}
	return true
}

func summarize(layer int, def *machine.Definition) machineSummary {
	return machineSummary{
		Layer:  layer,
		States: len(def.States),
		Clips:  len(def.Clips),
		Params: len(def.Params),
	}
}

func kindName(k uint8) string {
	switch k {
	case machine.KindBlend1D:
		return "blend1d"
	case machine.KindBlend2D:
		return "blend2d"
	default:
		return "clip"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
