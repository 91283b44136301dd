package observability

import (
	"scopecheck/internal/core/errors"
	"scopecheck/internal/engine/symtab"
)

// TableObserver feeds symbol table activity into the Prometheus metrics.
type TableObserver struct{}

var _ symtab.Observer = TableObserver{}

func (TableObserver) ScopeOpened(depth int) {
	ScopesOpenedTotal.Inc()
	ScopeDepth.Set(float64(depth))
}

func (TableObserver) ScopeClosed(depth int) {
	ScopesClosedTotal.Inc()
	ScopeDepth.Set(float64(depth))
}

func (TableObserver) Declared(_ string, err error) {
	DeclarationsTotal.WithLabelValues(declareOutcome(err)).Inc()
}

func (TableObserver) LookedUp(mode symtab.LookupMode, found bool, err error) {
	result := "miss"
	switch {
	case err != nil:
		result = "empty"
	case found:
		result = "hit"
	}
	LookupsTotal.WithLabelValues(string(mode), result).Inc()
}

func declareOutcome(err error) string {
	switch errors.CodeOf(err) {
	case "":
		if err != nil {
			return "error"
		}
		return "ok"
	case errors.CodeDuplicateName:
		return "duplicate"
	case errors.CodeInvalidArgument:
		return "invalid"
	case errors.CodeEmptyTable:
		return "empty"
	default:
		return "error"
	}
}
