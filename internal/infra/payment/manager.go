package payment

import (
	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/domain/ports/adapter"
)

// Manager is the gateway registry. Registration happens once at startup, so
// reads are not synchronized.
type Manager struct {
	gateways   map[string]adapter.PaymentGateway
	defaultID  string
	serverOnly map[string]bool
}

func NewManager() *Manager {
	return &Manager{
		gateways:   make(map[string]adapter.PaymentGateway),
		serverOnly: make(map[string]bool),
	}
}

// Register adds the gateway under its identifier; last write wins.
func (m *Manager) Register(g adapter.PaymentGateway) {
	m.gateways[g.Identifier()] = g
}

// RegisterServerOnly adds a gateway excluded from direct checkout display
// (server-to-server flows such as recurring billing only).
func (m *Manager) RegisterServerOnly(g adapter.PaymentGateway) {
	m.Register(g)
	m.serverOnly[g.Identifier()] = true
}

func (m *Manager) SetDefault(identifier string) {
	m.defaultID = identifier
}

// Gateway resolves an identifier; an empty identifier resolves the default.
func (m *Manager) Gateway(identifier string) (adapter.PaymentGateway, error) {
	if identifier == "" {
		identifier = m.defaultID
	}
	g, ok := m.gateways[identifier]
	if !ok {
		return nil, domain.ErrUnknownGateway
	}
	return g, nil
}

// DirectGateways lists available gateways suitable for checkout display.
func (m *Manager) DirectGateways() []adapter.PaymentGateway {
	out := make([]adapter.PaymentGateway, 0, len(m.gateways))
	for id, g := range m.gateways {
		if m.serverOnly[id] || !g.Available() {
			continue
		}
		out = append(out, g)
	}
	return out
}
