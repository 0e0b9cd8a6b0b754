package router

import (
	"context"

	"concierge/internal/dialogue"
	"concierge/internal/identity"
	"concierge/internal/llm"
	"concierge/internal/speech"
)

// #region collaborators

// Database answers workplace questions from the relational store.
type Database interface {
	AnswerWithDB(ctx context.Context, userText string, st *dialogue.State, intentOverride string) string
}

// KnowledgeGraph answers venue questions from the SPARQL endpoint.
type KnowledgeGraph interface {
	AnswerWithKG(ctx context.Context, userText string, slots speech.Slots, st *dialogue.State) string
}

// Directory resolves asserted names against the staff directory.
type Directory interface {
	LookupStaffExact(ctx context.Context, fullName string) (*identity.StaffRecord, error)
}

// Generator streams the final reply from the main chat model.
type Generator interface {
	StreamChat(ctx context.Context, p llm.Payload) (llm.Stream, error)
}

// #endregion collaborators

// #region router

// Router runs the per-turn pipeline: classify, resolve, gate, enrich, and
// hand off to the streaming generator. Collaborators may be nil; a missing
// collaborator simply yields no context for its concern.
type Router struct {
	Gen Generator
	KG  KnowledgeGraph
	DB  Database
	Dir Directory
}

// New builds a router over the given collaborators.
func New(gen Generator, kg KnowledgeGraph, db Database, dir Directory) *Router {
	return &Router{Gen: gen, KG: kg, DB: db, Dir: dir}
}

// #endregion router
