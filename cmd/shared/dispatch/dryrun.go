package dispatch

import (
	"context"
	"fmt"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// DryRunSubmitter logs orders instead of sending them.
type DryRunSubmitter struct {
	seq atomic.Uint64
}

func (s *DryRunSubmitter) Submit(_ context.Context, req OrderRequest) (string, error) {
	id := fmt.Sprintf("dry-run-%d", s.seq.Add(1))
	log.WithField("order_id", id).
		Infof("DRY_RUN %s %s x%d %s %s", req.Side.Side(), req.Symbol, req.Qty, req.Type, req.TimeInForce)
	return id, nil
}
