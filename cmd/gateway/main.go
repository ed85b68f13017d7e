package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/pathwise-lms/pathwise/internal/api/http"
	"github.com/pathwise-lms/pathwise/internal/auth"
	authmw "github.com/pathwise-lms/pathwise/internal/auth/middleware"
	"github.com/pathwise-lms/pathwise/internal/config"
	"github.com/pathwise-lms/pathwise/internal/course"
	"github.com/pathwise-lms/pathwise/internal/db"
	"github.com/pathwise-lms/pathwise/internal/grading"
	"github.com/pathwise-lms/pathwise/internal/progress"
	"github.com/pathwise-lms/pathwise/internal/quiz"
	"github.com/pathwise-lms/pathwise/internal/rbac"
	"github.com/pathwise-lms/pathwise/internal/storage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	// --- Stores and services ---
	courseStore := course.NewSQLStore(dbh)
	quizStore := quiz.NewSQLStore(dbh)
	progStore := progress.NewSQLStore(dbh)

	progSvc := progress.NewService(progStore, courseStore)
	quizSvc := quiz.NewService(quizStore, grading.NewDefaultGrader(), progSvc)

	now := func() int64 { return time.Now().Unix() }

	// --- Auth (local JWT for offline/dev) ---
	secret := getenvOr("AUTH_HMAC_SECRET", "supersecret-dev-key")
	authSvc := authmw.NewAuthService(secret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		if cfg.AdminPassHash != "" {
			if err := seedAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
				log.Fatalf("seed admin: %v", err)
			}
		}
		r.Post("/auth/login", authmw.LoginHandler(authSvc, dbh))
	}
	if cfg.EnableGoogleAuth {
		r.Get("/api/auth/google/login", auth.GoogleLoginHandler(cfg))
		r.Get("/api/auth/google/callback", auth.GoogleCallbackHandler(authSvc, dbh, cfg))
	}

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(authmw.JWTMiddleware(authSvc))
		pr.Use(authmw.AttachRoleFromDB(dbh, cfg.Mode == config.ModeOffline))

		// Course catalog and authoring
		pr.With(rbac.Require("course:list")).
			Get("/courses", api.ListCoursesHandler(courseStore))
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(courseStore, now))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}", api.GetCourseHandler(courseStore))
		pr.With(rbac.Require("module:create")).
			Post("/courses/{courseID}/modules", api.AddModuleHandler(courseStore))
		pr.With(rbac.Require("content:create")).
			Post("/courses/{courseID}/contents", api.AddContentHandler(courseStore))
		pr.With(rbac.Require("course:view")).
			Get("/courses/{courseID}/outline", api.CourseOutlineHandler(courseStore, progSvc))
		pr.With(rbac.Require("content:view")).
			Get("/contents/{contentID}", api.GetContentHandler(courseStore, progSvc))

		// Enrollment
		pr.With(rbac.Require("enrollment:self")).
			Post("/courses/{courseID}/enroll", api.EnrollSelfHandler(courseStore, progSvc))
		pr.With(rbac.Require("enrollment:manage")).
			Post("/courses/{courseID}/enrollments", api.EnrollStudentsHandler(courseStore, progSvc))

		// Progress
		pr.With(rbac.Require("content:complete")).
			Post("/courses/{courseID}/contents/{contentID}/complete", api.MarkContentCompleteHandler(progSvc))
		pr.With(rbac.RequireAny("progress:view-own", "progress:view-all")).
			Get("/courses/{courseID}/progress", api.GetProgressHandler(progSvc))
		pr.With(rbac.Require("progress:view-own")).
			Get("/courses/{courseID}/locked", api.LockedContentHandler(progSvc))
		pr.With(rbac.RequireAny("progress:reset-own", "progress:view-all")).
			Post("/courses/{courseID}/progress/reset", api.ResetProgressHandler(progSvc))
		pr.With(rbac.RequireAny("progress:complete-own", "progress:view-all")).
			Post("/courses/{courseID}/progress/force-complete", api.ForceCompleteHandler(progSvc))
		pr.With(rbac.Require("progress:view-all")).
			Get("/courses/{courseID}/students", api.CourseStudentsHandler(progSvc))
		pr.With(rbac.Require("progress:view-all")).
			Get("/events", api.EventsHandler(dbh))

		// Quizzes and attempts
		pr.With(rbac.Require("quiz:create")).
			Post("/quizzes", api.CreateQuizHandler(quizStore, now))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(quizStore))
		pr.With(rbac.Require("quiz:delete")).
			Delete("/quizzes/{quizID}", api.DeleteQuizHandler(quizStore))
		pr.With(rbac.Require("attempt:create")).
			Post("/quizzes/{quizID}/attempts", api.SubmitAttemptHandler(quizSvc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/quizzes/{quizID}/attempts/best", api.BestAttemptHandler(quizStore))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(quizStore))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/{attemptID}", api.GetAttemptHandler(quizStore))

		// Users (instructor/admin)
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Study materials
		pr.Route("/materials", func(mr chi.Router) {
			api.MountMaterials(mr, bs, courseStore, progSvc)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db down", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

func getenvOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// seedAdmin makes sure the bootstrap admin exists. The hash comes from
// the environment; the password itself is never seen here.
func seedAdmin(ctx context.Context, dbh *sql.DB, user, passHash string) error {
	_, err := dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at)
		 VALUES ($1,$2,$3,'admin',$4)
		 ON CONFLICT (username) DO UPDATE SET password_hash=EXCLUDED.password_hash, role='admin'`,
		"admin|"+user, user, passHash, time.Now().Unix())
	return err
}
