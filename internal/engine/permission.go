package engine

// AuthState mirrors the platform location-authorization state.
type AuthState string

const (
	AuthNotDetermined AuthState = "not-determined"
	AuthWhenInUse     AuthState = "when-in-use"
	AuthAlways        AuthState = "always"
	AuthDenied        AuthState = "denied"
	AuthRestricted    AuthState = "restricted"
)

// PermissionAction is what the engine must do after a transition.
type PermissionAction int

const (
	// ActionNone: the transition requires nothing.
	ActionNone PermissionAction = iota
	// ActionRequestUpgrade: nudge the user towards background ("always")
	// authorization after a short settle delay. Issued at most once.
	ActionRequestUpgrade
	// ActionTeardown: release every active region and go inert.
	ActionTeardown
	// ActionResync: authorization just became sufficient; run a fresh
	// reconciliation pass.
	ActionResync
)

// PermissionMachine tracks authorization transitions delivered by the
// platform callback and tells the engine how to react. It never polls.
// Only the rules below trigger anything; every other (old, new) pair is
// a plain state update.
type PermissionMachine struct {
	state  AuthState
	nudged bool
}

// NewPermissionMachine starts in the not-determined state.
func NewPermissionMachine() *PermissionMachine {
	return &PermissionMachine{state: AuthNotDetermined}
}

// State returns the current authorization state.
func (m *PermissionMachine) State() AuthState {
	return m.state
}

// Authorized reports whether monitoring may run at all.
func (m *PermissionMachine) Authorized() bool {
	return m.state == AuthAlways
}

// Transition applies a new authorization state and returns the action the
// engine must take. toggleEnabled is the global proximity toggle: regaining
// "always" only resyncs while the toggle is on.
func (m *PermissionMachine) Transition(next AuthState, toggleEnabled bool) PermissionAction {
	prev := m.state
	m.state = next

	switch {
	case next == AuthDenied || next == AuthRestricted:
		return ActionTeardown

	case next == AuthAlways && prev != AuthAlways:
		if toggleEnabled {
			return ActionResync
		}
		return ActionNone

	case prev == AuthNotDetermined && next == AuthWhenInUse:
		// One-shot nudge to upgrade to background authorization.
		if m.nudged {
			return ActionNone
		}
		m.nudged = true
		return ActionRequestUpgrade
	}

	return ActionNone
}
