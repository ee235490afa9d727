// Package artifacts encodes crawl results, the label codec, the trained classifier and the build
// manifest as named blobs and moves them in and out of a blob store.
package artifacts

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dtnitsch/wikicat/models"
	"github.com/dtnitsch/wikicat/pkg/crawler"
	"github.com/dtnitsch/wikicat/pkg/labels"
	"github.com/dtnitsch/wikicat/pkg/manifest"
	"github.com/dtnitsch/wikicat/pkg/pipeline"
	"github.com/dtnitsch/wikicat/pkg/storage"
)

// Blob names. Every build writes all of them together.
const (
	TextDict   = "text_dict"
	TargetDict = "target_dict"
	IndCatMap  = "ind_cat_map"
	CatIndMap  = "cat_ind_map"
	Classifier = "classifier"
	Manifest   = "manifest"
)

var (
	crawlBlobs = []string{TextDict, TargetDict, IndCatMap, CatIndMap}
	allBlobs   = append(append([]string{}, crawlBlobs...), Classifier, Manifest)
)

// BlobStore is the persistence the manager needs. *db.DB satisfies it.
type BlobStore interface {
	PutBlobs(names []string, blobs map[string][]byte) error
	GetBlob(name string) ([]byte, error)
}

// Manager handles storage and retrieval of build artifacts.
type Manager struct {
	store BlobStore
}

func NewManager(store BlobStore) *Manager {
	return &Manager{store: store}
}

// SaveBuild writes the crawl results, both codec directions, the classifier and the manifest in
// one transaction, so the stored classifier always matches the stored codec.
func (m *Manager) SaveBuild(s *crawler.Session, codec *labels.Codec, model *pipeline.Model, build *manifest.Build) error {
	if err := codec.Validate(); err != nil {
		return &models.PersistenceError{Blob: IndCatMap, Op: "save", Err: err}
	}
	if len(model.Estimators) != codec.Len() {
		return &models.PersistenceError{Blob: Classifier, Op: "save",
			Err: fmt.Errorf("classifier has %d estimators for %d categories", len(model.Estimators), codec.Len())}
	}

	values := map[string]any{
		TextDict:   s.Texts,
		TargetDict: s.Labels,
		IndCatMap:  codec.IndexToName(),
		CatIndMap:  codec.NameToIndex(),
	}
	blobs := make(map[string][]byte, len(allBlobs))
	for _, name := range crawlBlobs {
		data, err := json.Marshal(values[name])
		if err != nil {
			return &models.PersistenceError{Blob: name, Op: "save", Err: err}
		}
		blobs[name] = data
	}

	modelData, err := model.Encode()
	if err != nil {
		return &models.PersistenceError{Blob: Classifier, Op: "save", Err: err}
	}
	blobs[Classifier] = modelData

	manifestData, err := build.Encode()
	if err != nil {
		return &models.PersistenceError{Blob: Manifest, Op: "save", Err: err}
	}
	blobs[Manifest] = manifestData

	return m.store.PutBlobs(allBlobs, blobs)
}

// LoadCrawl reads back the crawl half of what SaveBuild wrote. Every blob must be present and consistent.
func (m *Manager) LoadCrawl() (*crawler.Session, *labels.Codec, error) {
	s := crawler.NewSession()
	if err := m.load(TextDict, &s.Texts); err != nil {
		return nil, nil, err
	}
	if err := m.load(TargetDict, &s.Labels); err != nil {
		return nil, nil, err
	}
	codec, err := m.LoadCodec()
	if err != nil {
		return nil, nil, err
	}

	for title := range s.Texts {
		cats, ok := s.Labels[title]
		if !ok || len(cats) == 0 {
			return nil, nil, &models.PersistenceError{Blob: TargetDict, Op: "load", Err: fmt.Errorf("article %q has no labels", title)}
		}
		for _, c := range cats {
			if c < 0 || c >= codec.Len() {
				return nil, nil, &models.PersistenceError{Blob: TargetDict, Op: "load", Err: fmt.Errorf("article %q has unknown category %d", title, c)}
			}
		}
	}
	return s, codec, nil
}

// LoadCodec reads both codec directions and validates the bijection.
func (m *Manager) LoadCodec() (*labels.Codec, error) {
	var indToCat map[int]string
	if err := m.load(IndCatMap, &indToCat); err != nil {
		return nil, err
	}
	var catToInd map[string]int
	if err := m.load(CatIndMap, &catToInd); err != nil {
		return nil, err
	}
	codec, err := labels.FromMaps(indToCat, catToInd)
	if err != nil {
		return nil, &models.PersistenceError{Blob: IndCatMap, Op: "load", Err: err}
	}
	return codec, nil
}

// LoadModel reads the persisted classifier.
func (m *Manager) LoadModel() (*pipeline.Model, error) {
	data, err := m.store.GetBlob(Classifier)
	if err != nil {
		return nil, err
	}
	model, err := pipeline.DecodeModel(data)
	if err != nil {
		return nil, &models.PersistenceError{Blob: Classifier, Op: "load", Err: err}
	}
	return model, nil
}

// LoadManifest reads the manifest of the last successful build.
func (m *Manager) LoadManifest() (*manifest.Build, error) {
	data, err := m.store.GetBlob(Manifest)
	if err != nil {
		return nil, err
	}
	build, err := manifest.Decode(data)
	if err != nil {
		return nil, &models.PersistenceError{Blob: Manifest, Op: "load", Err: err}
	}
	return build, nil
}

// Export copies every present artifact into dir as <name>.json and returns the paths written.
// Missing artifacts are skipped.
func (m *Manager) Export(dir string, fs *storage.Storage) ([]string, error) {
	if err := fs.EnsureDir(dir); err != nil {
		return nil, err
	}

	var written []string
	for _, name := range allBlobs {
		data, err := m.store.GetBlob(name)
		if errors.Is(err, models.ErrBlobNotFound) {
			continue
		}
		if err != nil {
			return written, err
		}
		path := filepath.Join(dir, name+".json")
		if err := fs.SaveFile(path, data); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (m *Manager) load(name string, v any) error {
	data, err := m.store.GetBlob(name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &models.PersistenceError{Blob: name, Op: "load", Err: err}
	}
	return nil
}
