package search

import (
	"github.com/systemccg/flourisha-00-ai-brain-sub006/core"
)

// QueryMonitor provides hooks to observe a combined query.
// Implement this interface to track intermediate steps and results.
type QueryMonitor interface {
	Start(query string)
	AfterVectorSearch(hits []core.VectorHit)
	AfterGraphSearch(hits []core.GraphHit)
	StoreDegraded(store string, err error)
	Finish(result *core.QueryResult)
}

// noopMonitor is a no-op implementation of QueryMonitor
type noopMonitor struct{}

var _ QueryMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                       {}
func (n *noopMonitor) AfterVectorSearch(_ []core.VectorHit) {}
func (n *noopMonitor) AfterGraphSearch(_ []core.GraphHit)   {}
func (n *noopMonitor) StoreDegraded(_ string, _ error)      {}
func (n *noopMonitor) Finish(_ *core.QueryResult)           {}
