package service

import (
	"time"

	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/auth"
	"github.com/ANIKETSHETTY47/pump-monitoring-system/internal/repository"
	"github.com/jmoiron/sqlx"
)

type Services struct {
	Repos    *repository.Repos
	Overview *OverviewService
	Auth     *AuthService
	Ingest   *IngestService
	Archive  *ArchiveService
}

// Options wires the collaborators that live outside the database. Zero
// values disable the corresponding feature: no Alerter means no alerts, no
// Uploader means Archive is nil. TableColumns restricts the generic table
// proxy to the listed columns.
type Options struct {
	QueryTimeout   time.Duration
	Tokens         *auth.TokenManager
	Revocations    auth.RevocationStore
	LockFor        time.Duration
	Alerter        Alerter
	AlertThreshold int64
	Uploader       Uploader
	TableColumns   map[string][]string
}

func New(db *sqlx.DB, opts Options) *Services {
	repos := repository.New(db)
	if opts.TableColumns != nil {
		repos.RestrictColumns(opts.TableColumns)
	}
	if opts.Revocations == nil {
		opts.Revocations = auth.NewMemoryRevocations()
	}
	svcs := &Services{
		Repos:    repos,
		Overview: NewOverviewService(repos, opts.QueryTimeout),
		Ingest:   NewIngestService(repos, opts.Alerter, opts.AlertThreshold),
	}
	if opts.Tokens != nil {
		svcs.Auth = NewAuthService(repos, opts.Tokens, opts.Revocations, opts.LockFor)
	}
	if opts.Uploader != nil {
		svcs.Archive = NewArchiveService(repos, opts.Uploader)
	}
	return svcs
}
