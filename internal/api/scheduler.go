package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type SchedulerRouter struct {
	controller Controller
	router     chi.Router
}

func (s *SchedulerRouter) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	s.router.ServeHTTP(writer, request)
}

func NewSchedulerRouter(controller Controller, router chi.Router) *SchedulerRouter {
	r := &SchedulerRouter{
		controller: controller,
		router:     router,
	}
	r.router.Get("/", r.GetStatus)
	r.router.Put("/", r.UpdateStatus)
	r.router.Post("/start", r.Start)
	r.router.Post("/stop", r.Stop)
	r.router.Post("/cancel", r.Cancel)

	return r
}

func (s *SchedulerRouter) status() SchedulerStatus {
	return SchedulerStatus{
		Enabled:   s.controller.Enabled(),
		RunCount:  s.controller.RunCount(),
		TickCount: s.controller.TickCount(),
	}
}

func (s *SchedulerRouter) GetStatus(w http.ResponseWriter, _ *http.Request) {
	serveJson(w, s.status())
}

func (s *SchedulerRouter) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var payload UpdateSchedulerRequest
	if err := readJson(w, r, &payload); err != nil {
		return
	}
	if err := payload.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if *payload.Enabled {
		s.controller.Start()
	} else {
		s.controller.Stop()
	}
	serveJson(w, s.status())
}

func (s *SchedulerRouter) Start(w http.ResponseWriter, _ *http.Request) {
	s.controller.Start()
	serveJson(w, s.status())
}

func (s *SchedulerRouter) Stop(w http.ResponseWriter, _ *http.Request) {
	s.controller.Stop()
	serveJson(w, s.status())
}

func (s *SchedulerRouter) Cancel(w http.ResponseWriter, _ *http.Request) {
	cancelled := s.controller.CancelFutureTasks()
	log.Info().Int("cancelled", cancelled).Msg("Future ticks cancelled from the console")
	serveJson(w, CancelResponse{Cancelled: cancelled})
}
