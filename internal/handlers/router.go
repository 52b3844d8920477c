package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/Dias221467/teachmate/internal/config"
	"github.com/Dias221467/teachmate/internal/devserver"
	"github.com/Dias221467/teachmate/pkg/middleware"
)

// NewRouter exposes backend under /api. The hub receives the backend's push
// events.
func NewRouter(cfg *config.Config, backend *devserver.Backend, hub *Hub, mailer ReportMailer) http.Handler {
	backend.SetPublisher(hub)

	userHandler := NewUserHandler(backend, cfg, mailer)
	friendHandler := NewFriendHandler(backend)
	threadHandler := NewThreadHandler(backend)
	messageHandler := NewMessageHandler(backend)
	pollHandler := NewPollHandler(backend)
	scheduleHandler := NewScheduleHandler(backend)
	notificationHandler := NewNotificationHandler(backend)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", userHandler.RegisterUserHandler).Methods("POST")
	api.HandleFunc("/auth/login", userHandler.LoginUserHandler).Methods("POST")
	api.HandleFunc("/files/{id}", messageHandler.GetFileHandler).Methods("GET")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protected.Use(middleware.UpdateLastActiveMiddleware(backend))

	// Push socket
	protected.HandleFunc("/ws", hub.PushWebSocketHandler).Methods("GET")

	// User routes; fixed paths before /{id}
	protected.HandleFunc("/users/me", userHandler.GetMeHandler).Methods("GET")
	protected.HandleFunc("/users/me", userHandler.UpdateMeHandler).Methods("PATCH")
	protected.HandleFunc("/users/search", userHandler.SearchUsersHandler).Methods("GET")
	protected.HandleFunc("/users/{id}", userHandler.GetUserHandler).Methods("GET")
	protected.HandleFunc("/users/{id}/report", userHandler.ReportUserHandler).Methods("POST")

	// Friend routes
	protected.HandleFunc("/friends", friendHandler.GetFriendsHandler).Methods("GET")
	protected.HandleFunc("/friends/suggestions", friendHandler.GetSuggestionsHandler).Methods("GET")
	protected.HandleFunc("/friends/requests", friendHandler.GetPendingRequestsHandler).Methods("GET")
	protected.HandleFunc("/friends/requests", friendHandler.SendFriendRequestHandler).Methods("POST")
	protected.HandleFunc("/friends/requests/{id}/accept", friendHandler.AcceptRequestHandler).Methods("POST")
	protected.HandleFunc("/friends/requests/{id}/reject", friendHandler.RejectRequestHandler).Methods("POST")

	// Thread routes; fixed paths before /{id}
	protected.HandleFunc("/threads", threadHandler.GetThreadsHandler).Methods("GET")
	protected.HandleFunc("/threads/strangers", threadHandler.GetStrangerThreadsHandler).Methods("GET")
	protected.HandleFunc("/threads/groups", threadHandler.GetGroupsHandler).Methods("GET")
	protected.HandleFunc("/threads/groups", threadHandler.CreateGroupHandler).Methods("POST")
	protected.HandleFunc("/threads/groups/{id}/join", threadHandler.JoinGroupHandler).Methods("POST")
	protected.HandleFunc("/threads/groups/{id}/leave", threadHandler.LeaveGroupHandler).Methods("POST")
	protected.HandleFunc("/threads/direct", threadHandler.DirectThreadHandler).Methods("POST")
	protected.HandleFunc("/threads/{id}", threadHandler.GetThreadHandler).Methods("GET")
	protected.HandleFunc("/threads/{id}/attachments", threadHandler.GetAttachmentsHandler).Methods("GET")
	protected.HandleFunc("/threads/{id}/messages", messageHandler.SendMessageHandler).Methods("POST")
	protected.HandleFunc("/threads/{id}/polls", pollHandler.GetThreadPollsHandler).Methods("GET")
	protected.HandleFunc("/threads/{id}/schedules", scheduleHandler.GetThreadSchedulesHandler).Methods("GET")
	protected.HandleFunc("/messages/{id}", messageHandler.DeleteMessageHandler).Methods("DELETE")

	// Poll routes
	protected.HandleFunc("/polls", pollHandler.CreatePollHandler).Methods("POST")
	protected.HandleFunc("/polls/{id}", pollHandler.GetPollHandler).Methods("GET")
	protected.HandleFunc("/polls/{id}/votes", pollHandler.VoteHandler).Methods("POST")
	protected.HandleFunc("/polls/{id}/votes/{optionId}", pollHandler.RemoveVoteHandler).Methods("DELETE")

	// Schedule routes
	protected.HandleFunc("/schedules", scheduleHandler.GetMySchedulesHandler).Methods("GET")
	protected.HandleFunc("/schedules", scheduleHandler.CreateScheduleHandler).Methods("POST")
	protected.HandleFunc("/schedules/{id}", scheduleHandler.GetScheduleHandler).Methods("GET")
	protected.HandleFunc("/schedules/{id}/join", scheduleHandler.JoinScheduleHandler).Methods("POST")
	protected.HandleFunc("/schedules/{id}/leave", scheduleHandler.LeaveScheduleHandler).Methods("POST")

	// Notification routes
	protected.HandleFunc("/notifications", notificationHandler.GetNotificationsHandler).Methods("GET")
	protected.HandleFunc("/notifications/read-all", notificationHandler.MarkAllReadHandler).Methods("POST")
	protected.HandleFunc("/notifications/{id}/read", notificationHandler.MarkReadHandler).Methods("POST")

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}
