package cli

import (
	"context"
	"fmt"
	"log"
	"time"

	"concierge/internal/config"
	"concierge/internal/kg"
	"concierge/internal/llm"
	"concierge/internal/router"
	"concierge/internal/store"
)

// #region wiring

// deps holds the assembled collaborators for one command invocation.
type deps struct {
	cfg        config.Config
	store      *store.Store
	transcript *store.Transcript
	router     *router.Router
	dbEnabled  bool
}

// buildDeps loads configuration and wires the full collaborator graph. The
// database is probed once at startup; an unreachable database disables DB
// answering for the whole process rather than failing it.
func buildDeps(withTranscript bool) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	llmc := llm.NewClient(cfg.LLMMainURL, cfg.LLMSQLURL, cfg.LLMSPARQLURL,
		cfg.RequestTimeout, cfg.KeepAlive)

	var kgClient router.KnowledgeGraph
	if cfg.SPARQLEndpoint != "" {
		kgClient = kg.NewClient(cfg.SPARQLEndpoint, llmc, cfg.RequestTimeout)
	} else {
		log.Printf("[CFG] SPARQL_ENDPOINT unset, venue answering disabled")
	}

	d := &deps{cfg: cfg}
	var db router.Database
	var dir router.Directory
	if cfg.DBEnabled {
		s, err := store.Open(cfg.DBDSN, llmc)
		if err != nil {
			log.Printf("[DB] configured but not usable: %v", err)
		} else {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			err = s.Ping(ctx)
			cancel()
			if err != nil {
				log.Printf("[DB] configured but not reachable: %v", err)
				s.Close()
			} else {
				log.Printf("[DB] database reachable, enabling DB queries")
				d.store = s
				d.dbEnabled = true
				db = s
				dir = s
			}
		}
	}

	if withTranscript {
		tr, err := store.OpenTranscript(cfg.TranscriptDB)
		if err != nil {
			log.Printf("[DB] transcript log unavailable: %v", err)
		} else {
			d.transcript = tr
		}
	}

	d.router = router.New(llmc, kgClient, db, dir)
	return d, nil
}

func (d *deps) Close() {
	if d.store != nil {
		d.store.Close()
	}
	if d.transcript != nil {
		d.transcript.Close()
	}
}

// #endregion wiring
