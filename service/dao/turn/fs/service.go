package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"
	"github.com/viant/cogniflow/model/conversation"
	"github.com/viant/cogniflow/service/dao"
	"github.com/viant/cogniflow/service/dao/criteria"
	"github.com/viant/cogniflow/service/dao/turn"
)

// Service implements a turn archive keeping one JSON document per turn.
type Service struct {
	basePath string
	fs       afs.Service
	logger   zerolog.Logger
	mu       sync.RWMutex
}

var _ turn.Service = (*Service)(nil)

// Save persists a turn
func (s *Service) Save(ctx context.Context, t *conversation.Turn) error {
	if t == nil {
		return dao.ErrNilEntity
	}
	if t.ID == "" {
		return dao.ErrInvalidID
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal turn: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	filePath := s.turnPath(t.ID)
	if err = s.fs.Upload(ctx, filePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save turn to file %s: %w", filePath, err)
	}
	return nil
}

// Load retrieves a turn
func (s *Service) Load(ctx context.Context, id string) (*conversation.Turn, error) {
	if id == "" {
		return nil, dao.ErrInvalidID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	filePath := s.turnPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to check if turn exists: %w", err)
	}
	if !exists {
		return nil, dao.NotFound("turn", id)
	}
	data, err := s.fs.DownloadWithURL(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read turn file: %w", err)
	}
	ret := &conversation.Turn{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("failed to unmarshal turn: %w", err)
	}
	return ret, nil
}

// Delete removes a turn; deleting a missing turn is not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return dao.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	filePath := s.turnPath(id)
	exists, err := s.fs.Exists(ctx, filePath)
	if err != nil {
		return fmt.Errorf("failed to check if turn exists: %w", err)
	}
	if !exists {
		return nil
	}
	if err := s.fs.Delete(ctx, filePath); err != nil {
		return fmt.Errorf("failed to delete turn file: %w", err)
	}
	return nil
}

// List returns archived turns ordered by creation time
func (s *Service) List(ctx context.Context, parameters ...*dao.Parameter) ([]*conversation.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects, err := s.fs.List(ctx, s.basePath, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("failed to list turn files: %w", err)
	}
	var ret []*conversation.Turn
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := s.fs.Download(ctx, object)
		if err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("failed to read turn file")
			continue
		}
		t := &conversation.Turn{}
		if err := json.Unmarshal(data, t); err != nil {
			s.logger.Warn().Err(err).Str("url", object.URL()).Msg("failed to unmarshal turn file")
			continue
		}
		if criteria.Match(turn.Fields(t), parameters) {
			ret = append(ret, t)
		}
	}
	turn.Sort(ret)
	return ret, nil
}

func (s *Service) turnPath(id string) string {
	return path.Join(s.basePath, fmt.Sprintf("%s.json", id))
}

// New creates a file system archive rooted at basePath; any afs supported
// URL works, e.g. mem://localhost/archive in tests.
func New(basePath string, logger zerolog.Logger) (*Service, error) {
	if basePath == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}
	fs := afs.New()
	ctx := context.Background()
	if exists, _ := fs.Exists(ctx, basePath); !exists {
		if err := fs.Create(ctx, basePath, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create base directory: %w", err)
		}
	}
	return &Service{
		basePath: url.Normalize(basePath, file.Scheme),
		fs:       fs,
		logger:   logger,
	}, nil
}
