// Package hub locates and loads pretrained model artifacts from a remote
// model repository, trying well-known filenames in priority order.
package hub

import (
	"fmt"

	gohub "github.com/gomlx/go-huggingface/hub"
)

// Repo abstracts remote artifact listing and download so the resolver can be
// exercised without network access.
type Repo interface {
	ID() string
	List() ([]string, error)
	Download(name string) (string, error)
}

type hfRepo struct {
	id   string
	repo *gohub.Repo
}

// NewRepo returns a HuggingFace-hub backed Repo. Downloads land in cacheDir
// and are reused across invocations.
func NewRepo(id, cacheDir string) Repo {
	repo := gohub.New(id).WithProgressBar(false)
	if cacheDir != "" {
		repo = repo.WithCacheDir(cacheDir)
	}
	return &hfRepo{id: id, repo: repo}
}

func (r *hfRepo) ID() string { return r.id }

func (r *hfRepo) List() ([]string, error) {
	var names []string
	for name, err := range r.repo.IterFileNames() {
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", r.id, err)
		}
		names = append(names, name)
	}
	return names, nil
}

func (r *hfRepo) Download(name string) (string, error) {
	paths, err := r.repo.DownloadFiles(name)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "", fmt.Errorf("no local path for %s", name)
	}
	return paths[0], nil
}
