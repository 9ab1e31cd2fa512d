package hub

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"stockcast/forecast"
	"stockcast/model"
)

// Candidate filenames for a native tensor-format checkpoint, in priority
// order. The search stops at the first one that downloads.
var checkpointCandidates = []string{
	"model.pth",
	"pytorch_model.bin",
	"model.bin",
	"lstm_model.pth",
	"stock_lstm.pth",
	"pytorch_model.pt",
	"model.pt",
}

// Candidate filenames for the graph-execution fallback format. Beyond these,
// the full repository listing is searched for any .onnx file.
var graphCandidates = []string{
	"model.onnx",
	"lstm_model.onnx",
}

// Candidate filenames for an exported sampling pipeline.
var pipelineCandidates = []string{
	"model.onnx",
	"pipeline.onnx",
}

const listingCacheSize = 8

// ModelHandle is a loaded model plus its optional companion artifacts.
// Immutable once resolved; owned for the lifetime of one invocation.
type ModelHandle struct {
	Predictor forecast.Predictor
	Scaler    forecast.Scaler
	Metadata  *Metadata
}

// Resolver evaluates an ordered list of artifact-resolution strategies,
// short-circuiting on the first success. Remote listings are memoized in an
// LRU cache so the strategies and companion searches never refetch them.
type Resolver struct {
	log      *zap.Logger
	listings *lru.Cache[string, []string]

	graphAvailable func() bool
	missingDep     func() error
	loadCheckpoint func(path string) (forecast.Predictor, error)
	loadGraph      func(path string) (forecast.Predictor, error)
	loadSampler    func(path string) (forecast.Sampler, error)
	loadScaler     func(path string) (forecast.Scaler, error)
}

func NewResolver(rt *model.Runtime, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	listings, _ := lru.New[string, []string](listingCacheSize)
	return &Resolver{
		log:            logger,
		listings:       listings,
		graphAvailable: rt.Available,
		missingDep:     rt.MissingDependency,
		loadCheckpoint: func(path string) (forecast.Predictor, error) {
			return model.LoadLSTMFromCheckpoint(path)
		},
		loadGraph: func(path string) (forecast.Predictor, error) {
			return model.NewONNXModel(rt, path)
		},
		loadSampler: func(path string) (forecast.Sampler, error) {
			return model.NewONNXSampler(rt, path)
		},
		loadScaler: func(path string) (forecast.Scaler, error) {
			s, err := model.LoadScaler(path)
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

// ResolveModel locates and loads an inference model for the autoregressive
// pipeline. Once a candidate file downloads, a load failure is fatal; only
// download misses advance to the next candidate.
func (r *Resolver) ResolveModel(repo Repo) (*ModelHandle, error) {
	handle := &ModelHandle{}
	var lastErr error

	for _, name := range checkpointCandidates {
		path, err := repo.Download(name)
		if err != nil {
			lastErr = err
			continue
		}
		r.log.Info("found checkpoint", zap.String("repo", repo.ID()), zap.String("file", name))
		predictor, err := r.loadCheckpoint(path)
		if err != nil {
			return nil, err
		}
		handle.Predictor = predictor
		break
	}

	if handle.Predictor == nil {
		predictor, err := r.resolveGraph(repo, r.loadGraph, graphCandidates, &lastErr)
		if err != nil {
			return nil, err
		}
		handle.Predictor = predictor
	}

	if handle.Predictor == nil {
		listing, listErr := r.listing(repo)
		if listErr != nil && lastErr == nil {
			lastErr = listErr
		}
		return nil, &forecast.ModelNotFoundError{Repo: repo.ID(), Available: listing, LastErr: lastErr}
	}

	r.loadCompanions(repo, handle)
	return handle, nil
}

// ResolveSampler locates an exported sampling pipeline. Pipelines only ship
// in the graph format, so the graph runtime is required.
func (r *Resolver) ResolveSampler(repo Repo) (forecast.Sampler, error) {
	var lastErr error
	var sampler forecast.Sampler

	load := func(path string) (forecast.Predictor, error) {
		s, err := r.loadSampler(path)
		if err != nil {
			return nil, err
		}
		sampler = s
		return nil, nil
	}
	if _, err := r.resolveGraph(repo, load, pipelineCandidates, &lastErr); err != nil {
		return nil, err
	}
	if sampler == nil {
		listing, listErr := r.listing(repo)
		if listErr != nil && lastErr == nil {
			lastErr = listErr
		}
		return nil, &forecast.ModelNotFoundError{Repo: repo.ID(), Available: listing, LastErr: lastErr}
	}
	return sampler, nil
}

// resolveGraph tries the named graph-format candidates and then any .onnx
// file from the listing. The runtime requirement is only enforced once a
// graph file actually resolves.
func (r *Resolver) resolveGraph(repo Repo, load func(string) (forecast.Predictor, error), candidates []string, lastErr *error) (forecast.Predictor, error) {
	names := append([]string(nil), candidates...)
	if listing, err := r.listing(repo); err == nil {
		for _, file := range listing {
			if strings.HasSuffix(strings.ToLower(file), ".onnx") && !containsString(names, file) {
				names = append(names, file)
			}
		}
	}

	for _, name := range names {
		path, err := repo.Download(name)
		if err != nil {
			*lastErr = err
			continue
		}
		r.log.Info("found graph model", zap.String("repo", repo.ID()), zap.String("file", name))
		if !r.graphAvailable() {
			return nil, r.missingDep()
		}
		return load(path)
	}
	return nil, nil
}

// loadCompanions searches the listing for scaler and metadata files and loads
// them best-effort. Failures here are swallowed: the forecaster falls back to
// manual normalization.
func (r *Resolver) loadCompanions(repo Repo, handle *ModelHandle) {
	listing, err := r.listing(repo)
	if err != nil {
		r.log.Debug("companion search skipped", zap.Error(err))
		return
	}

	for _, name := range listing {
		lower := strings.ToLower(name)
		if handle.Scaler == nil && strings.Contains(lower, "scaler") && strings.HasSuffix(lower, ".pkl") {
			if path, err := repo.Download(name); err == nil {
				if scaler, err := r.loadScaler(path); err == nil {
					r.log.Info("loaded scaler", zap.String("file", name))
					handle.Scaler = scaler
				} else {
					r.log.Debug("scaler unusable", zap.String("file", name), zap.Error(err))
				}
			}
		}
		if handle.Metadata == nil && strings.Contains(lower, "metadata") && strings.HasSuffix(lower, ".json") {
			if path, err := repo.Download(name); err == nil {
				if md, err := loadMetadata(path); err == nil {
					r.log.Info("loaded metadata", zap.String("file", name))
					handle.Metadata = md
				}
			}
		}
	}
}

func (r *Resolver) listing(repo Repo) ([]string, error) {
	if names, ok := r.listings.Get(repo.ID()); ok {
		return names, nil
	}
	names, err := repo.List()
	if err != nil {
		return nil, err
	}
	r.listings.Add(repo.ID(), names)
	return names, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
