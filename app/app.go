package app

import (
	"database/sql"

	"github.com/mbolis/quick-survey/auth"
	"github.com/mbolis/quick-survey/catalog"
	"github.com/mbolis/quick-survey/config"
	"github.com/mbolis/quick-survey/identity"
	"github.com/mbolis/quick-survey/submission"
)

type App struct {
	*sql.DB
	config.Config

	Tokens      *auth.Manager
	Refresh     *auth.RefreshStore
	Users       *identity.Store
	Catalog     *catalog.Catalog
	Submissions *submission.Aggregator
}

// New wires every store on top of an open database handle.
func New(db *sql.DB, cfg config.Config) App {
	users := identity.NewStore(db)
	return App{
		DB:          db,
		Config:      cfg,
		Tokens:      auth.NewManager(cfg.TokenSecret, cfg.TokenTTL),
		Refresh:     auth.NewRefreshStore(db, cfg.RefreshTTL),
		Users:       users,
		Catalog:     catalog.New(db),
		Submissions: submission.New(db, users),
	}
}
