package api

import (
	"alcyxob/myhealth/internal/local"
	"alcyxob/myhealth/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	repo *local.Repository,
	sessionService service.SessionService,
	engine SyncRunner,
) {
	sessionHandler := NewSessionHandler(sessionService, engine)
	workoutHandler := NewWorkoutHandler(repo)
	exerciseHandler := NewExerciseHandler(repo)
	bodyWeightHandler := NewBodyWeightHandler(repo)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	apiV1.Use(OptionalAuthMiddleware(sessionService))
	{
		// --- Session & Sync ---
		apiV1.GET("/session", sessionHandler.GetSession)
		apiV1.POST("/session", sessionHandler.SignIn)
		apiV1.DELETE("/session", sessionHandler.SignOut)
		apiV1.GET("/sync", sessionHandler.SyncStatus)
		apiV1.POST("/sync", sessionHandler.TriggerSync)

		// --- Saved Workouts ---
		workoutGroup := apiV1.Group("/workouts")
		{
			workoutGroup.GET("", workoutHandler.GetWorkouts)
			workoutGroup.POST("", workoutHandler.SaveWorkout)
			workoutGroup.DELETE("/:id", workoutHandler.DeleteWorkout)
		}

		// --- Routines ---
		routineGroup := apiV1.Group("/routines")
		{
			routineGroup.GET("", workoutHandler.GetRoutines)
			routineGroup.POST("", workoutHandler.SaveRoutine)
			routineGroup.DELETE("/:id", workoutHandler.DeleteRoutine)
		}

		// --- History ---
		historyGroup := apiV1.Group("/history")
		{
			historyGroup.GET("", workoutHandler.GetHistory)
			historyGroup.POST("", workoutHandler.SaveLog)
			historyGroup.DELETE("/:id", workoutHandler.DeleteLog)
		}

		// --- Exercises ---
		exerciseGroup := apiV1.Group("/exercises")
		{
			exerciseGroup.GET("/defaults", exerciseHandler.GetDefaultExercises)
			exerciseGroup.GET("/:name/stats", exerciseHandler.GetExerciseStats)
			exerciseGroup.GET("/:name/series", exerciseHandler.GetExerciseSeries)
			exerciseGroup.GET("/:name/last", exerciseHandler.GetLastPerformance)
		}

		// --- Body Weight ---
		weightGroup := apiV1.Group("/body-weight")
		{
			weightGroup.GET("", bodyWeightHandler.GetHistory)
			weightGroup.POST("", bodyWeightHandler.Save)
			weightGroup.GET("/latest", bodyWeightHandler.GetLatest)
			weightGroup.GET("/chart", bodyWeightHandler.GetChart)
			weightGroup.DELETE("/:id", bodyWeightHandler.Delete)
		}
	}
}
