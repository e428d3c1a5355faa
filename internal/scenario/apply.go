package scenario

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/rfplan/internal/enrich"
	"github.com/sells-group/rfplan/internal/model"
	"github.com/sells-group/rfplan/internal/store"
)

// Placer adds a tower after checking its location. *placement.Gate
// implements it.
type Placer interface {
	Place(ctx context.Context, lat, lng, freqGHz float64) (model.Tower, error)
}

// Failure records a tower or link the scenario could not create.
type Failure struct {
	Item  string `json:"item"`
	Error string `json:"error"`
}

// Result is the outcome of Apply.
type Result struct {
	Towers   map[string]model.Tower `json:"towers"`
	Links    []model.LinkKey        `json:"links"`
	Labels   []string               `json:"labels"`
	Failures []Failure              `json:"failures,omitempty"`
	Places   enrich.PrefetchResult  `json:"places"`
}

// Apply adds the scenario's towers and links to graph, enriches every
// created link and prefetches place names. Individual failures are
// recorded and do not stop the run. placer may be nil only when the
// scenario skips placement checks.
func Apply(ctx context.Context, s *Scenario, graph *store.Graph, placer Placer, orch *enrich.Orchestrator) *Result {
	log := zap.L().With(zap.String("component", "scenario"), zap.String("scenario", s.Name))
	res := &Result{Towers: make(map[string]model.Tower, len(s.Towers))}

	for _, tc := range s.Towers {
		var (
			t   model.Tower
			err error
		)
		if s.Defaults.SkipPlacementCheck || placer == nil {
			t, err = graph.AddTower(tc.Lat, tc.Lng, tc.FreqGHz)
		} else {
			t, err = placer.Place(ctx, tc.Lat, tc.Lng, tc.FreqGHz)
		}
		if err != nil {
			log.Warn("tower not placed", zap.String("tower", tc.Name), zap.Error(err))
			res.Failures = append(res.Failures, Failure{Item: "tower " + tc.Name, Error: err.Error()})
			continue
		}
		res.Towers[tc.Name] = t
	}

	var tasks []*enrich.Task
	for _, lc := range s.Links {
		item := "link " + lc.From + "-" + lc.To
		a, okA := res.Towers[lc.From]
		b, okB := res.Towers[lc.To]
		if !okA || !okB {
			res.Failures = append(res.Failures, Failure{Item: item, Error: "endpoint tower was not placed"})
			continue
		}
		link, err := graph.AddLink(a.ID, b.ID)
		if err != nil {
			log.Warn("link not created", zap.String("link", item), zap.Error(err))
			res.Failures = append(res.Failures, Failure{Item: item, Error: err.Error()})
			continue
		}
		res.Links = append(res.Links, link.Key())

		if orch == nil {
			continue
		}
		task, err := orch.OnLinkCreated(ctx, link)
		if err != nil {
			log.Debug("link enrichment skipped", zap.String("link", item), zap.Error(err))
			continue
		}
		tasks = append(tasks, task)
	}

	for _, task := range tasks {
		select {
		case <-task.Done():
		case <-ctx.Done():
		}
	}

	if orch != nil && ctx.Err() == nil {
		res.Places = orch.PrefetchPlaceNames(ctx)
	}

	for _, k := range res.Links {
		if label, err := enrich.LinkLabel(graph, k); err == nil {
			res.Labels = append(res.Labels, label)
		}
	}

	log.Info("scenario applied",
		zap.Int("towers", len(res.Towers)),
		zap.Int("links", len(res.Links)),
		zap.Int("failures", len(res.Failures)),
	)
	return res
}
