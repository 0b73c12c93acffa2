package plugins

import "github.com/google/uuid"

// Plugin is the contract every instance produced by a manager observes.
// Implementations embed AbstractPlugin, which provides all three methods.
type Plugin interface {
	// Name returns the identifier of the plugin that produced the instance.
	Name() string
	// Metadata returns the producing plugin's metadata. Non-owning; valid
	// for the instance's lifetime.
	Metadata() *Metadata
	// Close informs the owning manager that the instance is gone. Must be
	// called exactly once by the application; further calls are no-ops.
	Close() error
}

// Features is an implementation-defined bitset an application may consult.
type Features uint64

// Featurer is optionally implemented by plugin instances that advertise
// feature bits.
type Featurer interface {
	Features() Features
}

// AbstractPlugin is the base of every plugin implementation. The instancer
// returns a value embedding it; the manager binds the identifier, metadata
// and instance token before handing the instance to the application.
type AbstractPlugin struct {
	manager  *Manager
	name     string
	metadata *Metadata
	token    uuid.UUID
}

// instanceBinder is how Instantiate recognizes AbstractPlugin-based
// instances.
type instanceBinder interface {
	bindInstance(m *Manager, name string, metadata *Metadata, token uuid.UUID)
}

func (p *AbstractPlugin) bindInstance(m *Manager, name string, metadata *Metadata, token uuid.UUID) {
	p.manager = m
	p.name = name
	p.metadata = metadata
	p.token = token
}

// Name returns the resolved plugin identifier, not the alias the instance
// may have been requested under.
func (p *AbstractPlugin) Name() string {
	return p.name
}

// Metadata returns the producing plugin's metadata, or nil for instances not
// produced by a manager.
func (p *AbstractPlugin) Metadata() *Metadata {
	return p.metadata
}

// Manager returns the owning manager, or nil for instances not produced by
// a manager or already closed.
func (p *AbstractPlugin) Manager() *Manager {
	return p.manager
}

// Close drops the instance from the owning manager's live-instance table.
// Safe to call on instances not produced by a manager, and idempotent.
func (p *AbstractPlugin) Close() error {
	if p.manager == nil {
		return nil
	}
	m := p.manager
	p.manager = nil
	return m.dropInstance(p.token, p.name)
}
