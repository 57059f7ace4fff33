package httpapi

import (
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/fthyco/simorg/pkg/kernelerrors"
)

// projectLimiters hands out one token bucket per project id, guarding the
// append endpoint (spec §5 "suspension points"). Grounded on the teacher's
// infrastructure/ratelimit wrapper around golang.org/x/time/rate.
type projectLimiters struct {
	mu        sync.Mutex
	perSecond float64
	burst     int
	byProject map[string]*rate.Limiter
}

func newProjectLimiters(perSecond float64, burst int) *projectLimiters {
	return &projectLimiters{
		perSecond: perSecond,
		burst:     burst,
		byProject: make(map[string]*rate.Limiter),
	}
}

func (p *projectLimiters) allow(projectID string) bool {
	p.mu.Lock()
	lim, ok := p.byProject[projectID]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(p.perSecond), p.burst)
		p.byProject[projectID] = lim
	}
	p.mu.Unlock()
	return lim.Allow()
}

// wrapAppendRateLimit limits only the append endpoint; reads are
// unrestricted (spec §5 "reads may occur concurrently with other reads").
func wrapAppendRateLimit(next http.HandlerFunc, limiters *projectLimiters) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID := mux.Vars(r)["id"]
		if !limiters.allow(projectID) {
			writeJSON(w, http.StatusTooManyRequests, errorResponse{Code: kernelerrors.RateLimited})
			return
		}
		next(w, r)
	}
}
