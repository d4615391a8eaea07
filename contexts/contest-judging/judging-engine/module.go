package judgingengine

import (
	"log/slog"

	httpadapter "photojury/contexts/contest-judging/judging-engine/adapters/http"
	"photojury/contexts/contest-judging/judging-engine/adapters/memory"
	"photojury/contexts/contest-judging/judging-engine/application/commands"
	"photojury/contexts/contest-judging/judging-engine/application/queries"
	"photojury/contexts/contest-judging/judging-engine/application/workers"
	"photojury/contexts/contest-judging/judging-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Catalog     ports.CatalogRepository
	Votes       ports.VoteRepository
	Scores      ports.ScoreRepository
	Views       ports.ViewRepository
	Entries     ports.EntryDirectory
	Stages      ports.StageAdvancer
	Outbox      ports.OutboxWriter
	OutboxQueue ports.OutboxRepository
	Publisher   ports.EventPublisher
	Clock       ports.Clock
	IDGen       ports.IDGenerator
	LegacyTotal bool
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	catalogUseCase := commands.CatalogUseCase{
		Catalog: deps.Catalog,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	voteUseCase := commands.VoteUseCase{
		Catalog: deps.Catalog,
		Votes:   deps.Votes,
		Entries: deps.Entries,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	scoreUseCase := commands.ScoreUseCase{
		Catalog:     deps.Catalog,
		Scores:      deps.Scores,
		Entries:     deps.Entries,
		Outbox:      deps.Outbox,
		Clock:       deps.Clock,
		IDGen:       deps.IDGen,
		LegacyTotal: deps.LegacyTotal,
		Logger:      deps.Logger,
	}
	viewUseCase := commands.ViewUseCase{
		Catalog: deps.Catalog,
		Views:   deps.Views,
		Entries: deps.Entries,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	stageUseCase := commands.StageUseCase{
		Catalog: deps.Catalog,
		Stages:  deps.Stages,
		Votes:   deps.Votes,
		Views:   deps.Views,
		Entries: deps.Entries,
		Outbox:  deps.Outbox,
		Clock:   deps.Clock,
		IDGen:   deps.IDGen,
		Logger:  deps.Logger,
	}
	resultsUseCase := queries.ResultsUseCase{
		Catalog: deps.Catalog,
		Votes:   deps.Votes,
		Scores:  deps.Scores,
		Entries: deps.Entries,
		Clock:   deps.Clock,
	}
	progressUseCase := queries.ProgressUseCase{
		Catalog: deps.Catalog,
		Votes:   deps.Votes,
		Views:   deps.Views,
		Entries: deps.Entries,
	}
	return Module{
		Handler: httpadapter.Handler{
			Catalog:  catalogUseCase,
			Votes:    voteUseCase,
			Scores:   scoreUseCase,
			Views:    viewUseCase,
			Stages:   stageUseCase,
			Results:  resultsUseCase,
			Progress: progressUseCase,
			Logger:   deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.OutboxQueue,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			Logger:    deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one in-memory store. Tests and local
// wiring use it together with Store's seeding helpers.
func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Catalog:     store,
		Votes:       store,
		Scores:      store,
		Views:       store,
		Entries:     store,
		Stages:      store,
		Outbox:      store,
		OutboxQueue: store,
		Publisher:   memory.NewPublisher(),
		Clock:       store,
		IDGen:       store,
		Logger:      logger,
	})
	module.Store = store
	return module
}
