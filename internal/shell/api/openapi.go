package api

import (
	"net/http"
	"sync"

	"github.com/pitchlab/pitchlab/internal/core/domain"
	"github.com/pitchlab/pitchlab/internal/shell/api/openapi"
)

var (
	openapiOnce sync.Once
	openapiGen  *openapi.Generator
)

// handleOpenAPI serves the generated OpenAPI 3.0 specification.
func (h *Handler) handleOpenAPI() http.HandlerFunc {
	openapiOnce.Do(func() {
		g := openapi.NewGenerator(
			openapi.WithTitle("PitchLab API"),
			openapi.WithVersion("1.0.0"),
			openapi.WithDescription("Sales roleplay training and feedback API"),
			openapi.WithServer("http://localhost:8000"),
		)

		g.RegisterResource(openapi.ResourceInfo{
			Name:           "scenarios",
			Model:          domain.Scenario{},
			SupportsList:   true,
			SupportsGet:    true,
			SupportsCreate: true,
			SupportsUpdate: true,
			SupportsDelete: true,
			RequiresAuth:   true,
		})
		g.RegisterResource(openapi.ResourceInfo{
			Name:           "transcripts",
			Model:          domain.Transcript{},
			IDParam:        "roomID",
			SupportsGet:    true,
			SupportsCreate: true,
			RequiresAuth:   true,
		})
		g.RegisterResource(openapi.ResourceInfo{
			Name:         "scorecards",
			Model:        domain.Scorecard{},
			IDParam:      "roomID",
			SupportsGet:  true,
			RequiresAuth: true,
		})
		g.RegisterResource(openapi.ResourceInfo{
			Name:           "credentials",
			Model:          domain.Credential{},
			SupportsList:   true,
			SupportsCreate: true,
			SupportsDelete: true,
			RequiresAuth:   true,
		})
		g.RegisterResource(openapi.ResourceInfo{
			Name:           "documents",
			Model:          domain.Document{},
			SupportsList:   true,
			SupportsCreate: true,
			SupportsDelete: true,
			RequiresAuth:   true,
		})

		// Routes the collection/item pattern cannot express
		g.RegisterOperation(http.MethodPost, "/api/v1/auth/signup",
			openapi.NewOperation("signup", "Register a new user", "Auth", false))
		g.RegisterOperation(http.MethodPost, "/api/v1/auth/token",
			openapi.NewOperation("token", "Exchange credentials for a bearer token", "Auth", false))
		g.RegisterOperation(http.MethodGet, "/api/v1/users/me",
			openapi.NewOperation("getMe", "Get the authenticated user", "Users", true))
		g.RegisterOperation(http.MethodPut, "/api/v1/users/me",
			openapi.NewOperation("updateMe", "Update the authenticated user", "Users", true))
		g.RegisterOperation(http.MethodDelete, "/api/v1/users/me",
			openapi.NewOperation("deleteMe", "Delete the authenticated user", "Users", true))
		g.RegisterOperation(http.MethodGet, "/api/v1/users/{id}/feedback",
			openapi.NewOperation("listFeedback", "List feedback for a user's rooms", "Users", true))
		g.RegisterOperation(http.MethodGet, "/api/v1/users/{id}/summary",
			openapi.NewOperation("getSummary", "Get a user's coaching summary", "Users", true))
		g.RegisterOperation(http.MethodGet, "/api/v1/scenarios/pick",
			openapi.NewOperation("pickScenario", "Pick a random scenario by kind and difficulty", "Scenarios", true))
		g.RegisterOperation(http.MethodPost, "/api/v1/scorecards/{roomID}",
			openapi.NewOperation("generateScorecard", "Generate or fetch the scorecard for a room", "Scorecards", true))

		openapiGen = g
	})

	return openapiGen.Handler()
}
