package routes

import (
	"database/sql"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	projectshttp "github.com/timeledger/timeledger-backend/internal/projects/http"
	projectsrepo "github.com/timeledger/timeledger-backend/internal/projects/repository"
	spendinghttp "github.com/timeledger/timeledger-backend/internal/spending/http"
	"github.com/timeledger/timeledger-backend/internal/spending/service"
	entrieshttp "github.com/timeledger/timeledger-backend/internal/timeentries/http"
	entriesrepo "github.com/timeledger/timeledger-backend/internal/timeentries/repository"
	usershttp "github.com/timeledger/timeledger-backend/internal/users/http"
	usersrepo "github.com/timeledger/timeledger-backend/internal/users/repository"
)

type V1Deps struct {
	DB       *pgxpool.Pool
	SQLDB    *sql.DB
	Spending *service.Service
}

// RegisterV1 mounts every feature slice on the versioned API group.
func RegisterV1(api *gin.RouterGroup, dep V1Deps) {
	userRepo := usersrepo.NewRepo(dep.DB)
	usershttp.Register(api.Group("/users"), userRepo, dep.Spending)

	projectRepo := projectsrepo.NewRepo(dep.DB)
	projectsGroup := api.Group("/projects")
	projectshttp.Register(projectsGroup, projectRepo, dep.Spending)

	spendinghttp.NewHandler(dep.Spending).Register(projectsGroup)

	entryRepo := entriesrepo.NewTimeEntryRepository(dep.SQLDB)
	entrieshttp.Register(api, entryRepo, dep.Spending)
}
