package relay

import (
	"encoding/json"
	"time"

	"github.com/yatin-commits/crypto-relay/internal/model"
)

// publish fans one symbol's updated snapshot out to every live client whose
// subscription set contains it. Each push carries only that symbol, bounding
// message size per tick regardless of how many symbols a client follows, and
// the payload is marshaled once per tick, not once per subscriber.
func (s *Supervisor) publish(snap model.PriceSnapshot) {
	subscribers := s.registry.Subscribers(snap.Symbol)
	if len(subscribers) == 0 {
		return
	}

	data, err := json.Marshal(model.NewPushMessage(time.Now(), snap))
	if err != nil {
		s.logger.Error("marshal push payload", "symbol", snap.Symbol, "error", err)
		return
	}
	for _, id := range subscribers {
		p, ok := s.conns[id]
		if !ok {
			// Subscription outlived its transport attach; purged on the
			// pending disconnect event.
			continue
		}
		s.deliver(id, p, data)
	}
}

// deliver pushes one encoded payload to one client. Failures are isolated:
// the drop is counted and logged, nothing else.
func (s *Supervisor) deliver(id model.ClientID, p Pusher, data []byte) {
	if p.Push(data) {
		s.statsMu.Lock()
		s.pushesSent++
		s.statsMu.Unlock()
		return
	}

	s.statsMu.Lock()
	s.pushesDropped++
	s.statsMu.Unlock()

	s.logger.Debug("push dropped", "client", id)
}
