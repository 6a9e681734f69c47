package app

import (
	"github.com/vancomm/aplenty-server/internal/handlers"
	"github.com/vancomm/aplenty-server/internal/middleware"
	"github.com/vancomm/aplenty-server/internal/repository"
)

func (a *App) loadRoutes() {
	evaluate := handlers.NewEvaluateHandler(a.log, a.cfg)
	workflows := handlers.NewWorkflowHandler(
		a.log, repository.New(a.db), a.cfg, a.ws,
	)

	a.router.HandleFunc("POST /evaluate", evaluate.Evaluate)

	a.router.HandleFunc("GET /workflows", workflows.List)
	a.router.HandleFunc("POST /workflows/{name}",
		middleware.RequireAuth(a.jwt, workflows.Create))
	a.router.HandleFunc("GET /workflows/{name}", workflows.Fetch)
	a.router.HandleFunc("DELETE /workflows/{name}",
		middleware.RequireAuth(a.jwt, workflows.Delete))
	a.router.HandleFunc("POST /workflows/{name}/evaluate", workflows.Evaluate)
	a.router.HandleFunc("GET /workflows/{name}/evaluations", workflows.Evaluations)
	a.router.HandleFunc("GET /workflows/{name}/trace", workflows.Trace)
}
