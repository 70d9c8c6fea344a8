package main

import (
	"net/http"

	"github.com/bmizerany/pat"
	"github.com/justinas/alice"
	"github.com/rs/cors"

	"swiftfactureBack/internal/models"
)

func (app *application) JWTMiddlewareWithRole(requiredRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return app.JWTMiddleware(next, requiredRole)
	}
}

func (app *application) routes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, secureHeaders, makeResponseJSON)
	authMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleUser))
	adminAuthMiddleware := standardMiddleware.Append(app.JWTMiddlewareWithRole(models.RoleAdmin))

	mux := pat.New()

	// Auth
	mux.Post("/auth/sign_up", standardMiddleware.ThenFunc(app.userHandler.SignUp))
	mux.Post("/auth/sign_in", standardMiddleware.ThenFunc(app.userHandler.SignIn))
	mux.Post("/auth/sign_out", authMiddleware.ThenFunc(app.userHandler.SignOut))
	mux.Get("/auth/session", authMiddleware.ThenFunc(app.userHandler.Session))
	mux.Get("/auth/oauth/:provider/callback", alice.New(app.recoverPanic, app.logRequest).ThenFunc(app.oauthHandler.Callback))
	mux.Get("/auth/oauth/:provider", alice.New(app.recoverPanic, app.logRequest).ThenFunc(app.oauthHandler.Start))

	// Dashboard
	mux.Get("/api/dashboard", authMiddleware.ThenFunc(app.dashboardHandler.Summary))

	// Messages
	mux.Post("/api/messages", authMiddleware.ThenFunc(app.messageHandler.CreateMessage))
	mux.Get("/api/messages/senders", adminAuthMiddleware.ThenFunc(app.messageHandler.ListSenders))
	mux.Get("/api/messages", authMiddleware.ThenFunc(app.messageHandler.ListMessages))
	mux.Del("/api/messages/:id", adminAuthMiddleware.ThenFunc(app.messageHandler.DeleteMessage))

	// Chat panel; authenticated by the hello frame
	mux.Get("/ws/chat", alice.New(app.recoverPanic, app.logRequest).ThenFunc(app.ChatSocketHandler))

	// Storage
	mux.Post("/api/storage/avatars", authMiddleware.ThenFunc(app.storageHandler.UploadAvatar))
	mux.Post("/api/storage/chat-files", authMiddleware.ThenFunc(app.storageHandler.UploadChatFile))

	// Notifications
	mux.Get("/api/notifications", authMiddleware.ThenFunc(app.notificationHandler.ListNotifications))
	mux.Post("/api/notifications/devices", authMiddleware.ThenFunc(app.notificationHandler.RegisterDevice))

	mux.Get("/healthz", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	return mux
}

// functionRoutes serves /functions/v1 with permissive CORS, separate from the
// origin allow-list applied to the rest of the API.
func (app *application) functionRoutes() http.Handler {
	standardMiddleware := alice.New(app.recoverPanic, app.logRequest, makeResponseJSON)

	mux := pat.New()
	mux.Post("/functions/v1/trial-reminders", standardMiddleware.ThenFunc(app.functionsHandler.TrialReminders))
	mux.Post("/functions/v1/send-email", standardMiddleware.ThenFunc(app.functionsHandler.SendEmail))
	mux.Options("/functions/v1/:name", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "X-Client-Info", "Apikey", "Content-Type"},
	})
	return c.Handler(mux)
}
