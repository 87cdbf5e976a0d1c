// Package api provides the gRPC ID service: parsing, resolution and legacy
// migration of Datasworn IDs.
package api

import (
	"fmt"
	"sync"

	"github.com/joeyeti/datasworn/internal/idparser"
	"github.com/joeyeti/datasworn/internal/migration"
)

// IdService implements IdServiceServer.
// Thin orchestration layer over the parser, the migrator and the loaded content.
type IdService struct {
	parser   *idparser.Parser
	migrator *migration.Migrator

	// content is swapped whole on reload; readers never see a partial tree
	mu   sync.RWMutex
	tree idparser.Tree
}

// NewIdService creates a service. tree may be nil until SetTree is called;
// ResolveId fails with FAILED_PRECONDITION until then.
func NewIdService(parser *idparser.Parser, migrator *migration.Migrator, tree idparser.Tree) (*IdService, error) {
	if parser == nil {
		return nil, fmt.Errorf("parser cannot be nil")
	}
	if migrator == nil {
		return nil, fmt.Errorf("migrator cannot be nil")
	}
	return &IdService{parser: parser, migrator: migrator, tree: tree}, nil
}

// SetTree replaces the content tree IDs resolve against.
func (s *IdService) SetTree(tree idparser.Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
}

func (s *IdService) currentTree() idparser.Tree {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree
}
