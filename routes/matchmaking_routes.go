package routes

import (
	"mingle_server/controllers"
	"mingle_server/services"

	"github.com/gorilla/mux"
)

// RegisterMatchmakingRoutes sets up routes for queue operations under /api/matchmaking
func RegisterMatchmakingRoutes(r *mux.Router, pool *services.WaitingPool, lifecycle *services.MatchLifecycle, clock services.Clock) {
	controller := controllers.NewMatchmakingController(pool, lifecycle, clock)

	// Create a subrouter for /api/matchmaking
	matchmakingRouter := r.PathPrefix("/api/matchmaking").Subrouter()

	matchmakingRouter.HandleFunc("/enqueue", controller.HandleEnqueue).Methods("POST")
	matchmakingRouter.HandleFunc("/cancel", controller.HandleCancel).Methods("POST")
	matchmakingRouter.HandleFunc("/respond", controller.HandleRespond).Methods("POST")
	matchmakingRouter.HandleFunc("/status", controller.HandleQueueStatus).Methods("GET")
	matchmakingRouter.HandleFunc("/matches", controller.HandleGetMatches).Methods("GET")
}
