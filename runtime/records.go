package runtime

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/jsbind/vm"
)

// recordObserver follows module records through the engine's handle table.
type recordObserver struct {
	live atomic.Int64
}

func (o *recordObserver) OnHandleEvent(e vm.Event) {
	if e.TypeID != vm.HandleModule {
		return
	}
	switch e.Type {
	case vm.EventCreated:
		o.live.Add(1)
		Logger().Debug("module record created", zap.Uint32("handle", uint32(e.Handle)))
	case vm.EventDropped:
		o.live.Add(-1)
		Logger().Debug("module record dropped", zap.Uint32("handle", uint32(e.Handle)))
	}
}
