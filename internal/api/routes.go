package api

import (
	"net/http"

	"situationroom/internal/auth"
	"situationroom/internal/render"
	"situationroom/internal/service"
	"situationroom/internal/storage"
	"situationroom/internal/ws"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type Dependencies struct {
	Forms        *service.FormService
	Submissions  *service.SubmissionService
	Reports      *service.ReportService
	PollingUnits *service.PollingUnitService
	// IncidentReports holds citizen reports posted from the public page
	IncidentReports *service.IncidentReportService
	Users           *service.UserService
	JWT             *auth.JWTConfig
	Pages           *render.Pages
	// Files serves locally stored uploads under /files/. Nil when uploads
	// live in object storage.
	Files storage.Storage
	Hub   *ws.Hub
	Log   *zap.Logger
}

func Routes(d Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestLogger(d.Log))

	// Anonymous requests pass through; handlers decide what they need
	r.Use(d.JWT.Middleware)

	canEdit := auth.RequirePerm(auth.PermCreateForms)
	canView := auth.RequirePerm(auth.PermViewForms)

	r.Route("/api", func(r chi.Router) {
		// Form endpoints
		r.Get("/forms", d.listForms)
		r.With(canEdit).Post("/forms", d.createForm)
		r.Get("/forms/polling", d.listPollingForms)
		r.Get("/forms/{ref}", d.getForm)
		r.With(canEdit).Patch("/forms/{ref}", d.updateForm)
		r.With(canEdit).Delete("/forms/{ref}", d.deleteForm)
		r.With(canView).Get("/forms/{ref}/report", d.formReport)

		// Builder endpoints
		r.Get("/field-kinds", d.fieldKinds)
		r.With(canEdit).Post("/builder/apply", d.applyBuilder)

		// Submission endpoints
		r.With(auth.RequireUser).Get("/submissions/{ref}", d.listSubmissions)
		r.Post("/submissions/{ref}", d.createSubmission)
		r.With(canView).Get("/submissions/{ref}/export", d.exportSubmissions)
		r.With(auth.RequireUser).Get("/submissions/item/{id}", d.getSubmission)
		r.With(auth.RequireUser).Delete("/submissions/item/{id}", d.deleteSubmission)

		// Polling unit endpoints
		r.Route("/resources/polling-units", func(r chi.Router) {
			canUpdate := auth.RequirePerm(auth.PermUpdatePollingUnits)
			r.Get("/", d.listPollingUnits)
			r.With(canUpdate).Post("/", d.createPollingUnit)
			r.Get("/cascade", d.cascadePollingUnits)
			r.Get("/{id}", d.getPollingUnit)
			r.With(canUpdate).Patch("/{id}", d.updatePollingUnit)
			r.With(canUpdate).Delete("/{id}", d.deletePollingUnit)
		})

		// Incident report endpoints
		r.Route("/incident-reports", func(r chi.Router) {
			canReview := auth.RequirePerm(auth.PermViewIncidentSubmissions)
			r.Post("/", d.createIncidentReport)
			r.With(canReview).Get("/", d.listIncidentReports)
			r.With(canReview).Get("/{id}", d.getIncidentReport)
			r.With(canReview).Patch("/{id}", d.updateIncidentReport)
			r.With(canReview).Delete("/{id}", d.deleteIncidentReport)
		})

		// Auth endpoints
		r.Post("/auth/login", d.login)
		r.With(auth.RequireUser).Get("/auth/me", d.me)
	})

	// Public HTML pages
	r.Get("/forms/{slug}", d.formPage)
	r.Post("/forms/{slug}", d.submitFormPage)
	r.Get("/forms/{slug}/preview", d.previewPage)

	if d.Files != nil {
		r.Get("/files/*", d.serveFile)
	}

	// WebSocket endpoint
	r.Get("/ws", d.wsHandler)

	return r
}
