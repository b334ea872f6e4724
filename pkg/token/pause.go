package token

import "sync"

// PauseSwitch is the circuit-breaker primitive. It only tracks the
// flag; who may flip it and when is decided by the governance layer.
type PauseSwitch struct {
	paused bool
	mutex  sync.RWMutex
}

// NewPauseSwitch creates an unpaused switch.
func NewPauseSwitch() *PauseSwitch {
	return &PauseSwitch{}
}

// Paused reports whether the switch is engaged.
func (p *PauseSwitch) Paused() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.paused
}

// Pause engages the switch.
func (p *PauseSwitch) Pause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.paused = true
}

// Unpause releases the switch.
func (p *PauseSwitch) Unpause() {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	p.paused = false
}
