package location

import (
	"context"
	"sync"

	"github.com/hkeats/eats/internal/domain"
)

// StaticProvider always reports the same coordinate. It stands in for device
// hardware in the CLI and tests.
type StaticProvider struct {
	mu      sync.Mutex
	coord   domain.Coordinate
	status  Authorization
	grant   Authorization
	err     error
	updates chan Fix
}

// NewStaticProvider returns an authorized provider at coord.
func NewStaticProvider(coord domain.Coordinate) *StaticProvider {
	return &StaticProvider{coord: coord, status: Authorized, grant: Authorized}
}

// SetAuthorization sets the current status and the answer to the next
// permission request.
func (p *StaticProvider) SetAuthorization(status, grant Authorization) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = status
	p.grant = grant
}

// SetError makes location requests fail with err; nil clears it.
func (p *StaticProvider) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Move changes the coordinate and pushes a fix to active updates.
func (p *StaticProvider) Move(coord domain.Coordinate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.coord = coord
	if p.updates != nil {
		p.updates <- Fix{Coordinate: coord, Err: p.err}
	}
}

// AuthorizationStatus implements Provider.
func (p *StaticProvider) AuthorizationStatus() Authorization {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// RequestPermission implements Provider.
func (p *StaticProvider) RequestPermission(context.Context) (Authorization, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = p.grant
	return p.status, nil
}

// RequestLocation implements Provider.
func (p *StaticProvider) RequestLocation(ctx context.Context) (domain.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return domain.Coordinate{}, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return domain.Coordinate{}, p.err
	}
	return p.coord, nil
}

// StartUpdates implements Provider. The current coordinate is delivered first.
func (p *StaticProvider) StartUpdates(context.Context) (<-chan Fix, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.updates != nil {
		return p.updates, nil
	}
	p.updates = make(chan Fix, 16)
	p.updates <- Fix{Coordinate: p.coord, Err: p.err}
	return p.updates, nil
}

// StopUpdates implements Provider.
func (p *StaticProvider) StopUpdates() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.updates != nil {
		close(p.updates)
		p.updates = nil
	}
}
