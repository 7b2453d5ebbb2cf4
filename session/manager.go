package session

import (
	"sync"
	"time"

	"github.com/rsneha-blip/procuremesh/core"
	"github.com/rsneha-blip/procuremesh/logging"
)

// Status is the lifecycle state of a workflow or one of its steps. The string
// values are part of the reporting wire contract.
type Status string

const (
	StatusPending            Status = "pending"
	StatusInProgress         Status = "in_progress"
	StatusWaitingForApproval Status = "waiting_for_approval"
	StatusApproved           Status = "approved"
	StatusRejected           Status = "rejected"
	StatusCompleted          Status = "completed"
	StatusFailed             Status = "failed"
)

// Workflow step identifiers, in execution order.
const (
	StepSourcing    = "sourcing"
	StepCompliance  = "compliance"
	StepNegotiation = "negotiation"
	StepApproval    = "approval"
)

var stepOrder = []string{StepSourcing, StepCompliance, StepNegotiation, StepApproval}

// Request is the procurement request a session is created for.
type Request struct {
	ID              string         `json:"request_id"`
	ItemDescription string         `json:"item_description"`
	Quantity        int            `json:"quantity"`
	Budget          float64        `json:"budget"`
	Urgency         string         `json:"urgency"`
	Category        string         `json:"category"`
	Requirements    map[string]any `json:"requirements"`
	RequestedBy     string         `json:"requested_by"`
	RequestedAt     time.Time      `json:"requested_at"`
}

// Step is one stage in the procurement workflow.
type Step struct {
	ID          string         `json:"step_id"`
	Agent       string         `json:"agent_responsible"`
	Name        string         `json:"step_name"`
	Status      Status         `json:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
}

// Session is the complete state of one procurement workflow.
type Session struct {
	ID                  string                    `json:"session_id"`
	Request             Request                   `json:"request"`
	Status              Status                    `json:"workflow_status"`
	CurrentStep         string                    `json:"current_step"`
	Steps               []Step                    `json:"workflow_steps"`
	AgentStates         map[string]map[string]any `json:"agent_states"`
	Messages            []core.Envelope           `json:"message_history"`
	DecisionTrail       []map[string]any          `json:"decision_trail"`
	FinalRecommendation map[string]any            `json:"final_recommendation,omitempty"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// Manager holds active sessions and drives their step machines. All methods
// are safe for concurrent use.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	ttl         time.Duration
	maxSessions int
	now         func() time.Time
	logger      logging.Logger
}

// ManagerOptions holds optional overrides for NewManager.
type ManagerOptions struct {
	// TTL is the inactivity window after which CleanupExpiredSessions reaps a
	// session. Defaults to 24 hours.
	TTL time.Duration
	// MaxSessions caps concurrently tracked sessions. CreateSession refuses
	// new sessions at the cap. Zero means uncapped.
	MaxSessions int
	// Now overrides the clock. Tests use it to control expiry.
	Now    func() time.Time
	Logger logging.Logger
}

// WithTTL overrides the session inactivity timeout.
func WithTTL(d time.Duration) func(o *ManagerOptions) {
	return func(o *ManagerOptions) { o.TTL = d }
}

// WithMaxSessions caps the number of concurrently tracked sessions.
func WithMaxSessions(n int) func(o *ManagerOptions) {
	return func(o *ManagerOptions) { o.MaxSessions = n }
}

// WithClock injects the time source.
func WithClock(now func() time.Time) func(o *ManagerOptions) {
	return func(o *ManagerOptions) { o.Now = now }
}

// WithLogger overrides the default NoOpLogger.
func WithLogger(l logging.Logger) func(o *ManagerOptions) {
	return func(o *ManagerOptions) { o.Logger = l }
}

// NewManager constructs an empty session manager.
func NewManager(optFns ...func(o *ManagerOptions)) *Manager {
	opts := ManagerOptions{
		TTL:    24 * time.Hour,
		Now:    func() time.Time { return time.Now().UTC() },
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{
		sessions:    make(map[string]*Session),
		ttl:         opts.TTL,
		maxSessions: opts.MaxSessions,
		now:         opts.Now,
		logger:      opts.Logger,
	}
}

// CreateSession opens a new workflow for the request and returns its id. The
// four fixed steps are allocated with the sourcing step already in progress.
// It returns an empty id when the manager is at its session cap.
func (m *Manager) CreateSession(req Request) string {
	now := m.now()
	if req.RequestedAt.IsZero() {
		req.RequestedAt = now
	}

	steps := []Step{
		{ID: StepSourcing, Agent: "sourcing", Name: "Find Suppliers", Status: StatusInProgress, StartedAt: &now},
		{ID: StepCompliance, Agent: "compliance", Name: "Check Compliance", Status: StatusPending},
		{ID: StepNegotiation, Agent: "negotiation", Name: "Negotiate Terms", Status: StatusPending},
		{ID: StepApproval, Agent: "supervisor", Name: "Final Approval", Status: StatusPending},
	}

	s := &Session{
		ID:          core.NewID(),
		Request:     req,
		Status:      StatusInProgress,
		CurrentStep: StepSourcing,
		Steps:       steps,
		AgentStates: make(map[string]map[string]any),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	m.mu.Lock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.mu.Unlock()
		m.logger.Warn("session cap reached", "max_sessions", m.maxSessions, "category", req.Category)
		return ""
	}
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("session created", "session_id", s.ID, "category", req.Category, "budget", req.Budget)
	return s.ID
}

// Session returns a snapshot of the session state.
func (m *Manager) Session(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return snapshot(s), true
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// AddMessage appends an envelope to the session's message history.
func (m *Manager) AddMessage(sessionID string, env core.Envelope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	s.Messages = append(s.Messages, env)
	s.UpdatedAt = m.now()
	return true
}

// UpdateAgentState replaces the stored state for one agent role.
func (m *Manager) UpdateAgentState(sessionID, agentRole string, state map[string]any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	s.AgentStates[agentRole] = state
	s.UpdatedAt = m.now()
	return true
}

// AgentState returns the stored state for one agent role.
func (m *Manager) AgentState(sessionID, agentRole string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	state, ok := s.AgentStates[agentRole]
	return state, ok
}

// AdvanceWorkflow completes the session's current step with its result and
// starts the next one. Steps complete strictly in order: stepID must name the
// current step. Completing the final step completes the workflow.
func (m *Manager) AdvanceWorkflow(sessionID, stepID string, result map[string]any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.CurrentStep != stepID {
		return false
	}

	now := m.now()
	idx := stepIndex(stepID)
	if idx < 0 {
		return false
	}

	step := &s.Steps[idx]
	step.Status = StatusCompleted
	step.CompletedAt = &now
	step.Result = result

	s.DecisionTrail = append(s.DecisionTrail, map[string]any{
		"step":      stepID,
		"agent":     step.Agent,
		"timestamp": now.Format(time.RFC3339),
		"result":    result,
	})

	if idx == len(s.Steps)-1 {
		s.Status = StatusCompleted
		s.CurrentStep = ""
	} else {
		next := &s.Steps[idx+1]
		next.Status = StatusInProgress
		next.StartedAt = &now
		s.CurrentStep = next.ID
	}

	s.UpdatedAt = now
	m.logger.Info("workflow advanced", "session_id", sessionID, "completed_step", stepID, "current_step", s.CurrentStep)
	return true
}

// FailWorkflow marks the session failed, recording the reason against the
// current step.
func (m *Manager) FailWorkflow(sessionID, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}

	now := m.now()
	if idx := stepIndex(s.CurrentStep); idx >= 0 {
		s.Steps[idx].Status = StatusFailed
		s.Steps[idx].CompletedAt = &now
	}
	s.Status = StatusFailed
	s.DecisionTrail = append(s.DecisionTrail, map[string]any{
		"step":      s.CurrentStep,
		"timestamp": now.Format(time.RFC3339),
		"result":    map[string]any{"error": reason},
	})
	s.UpdatedAt = now
	m.logger.Warn("workflow failed", "session_id", sessionID, "step", s.CurrentStep, "reason", reason)
	return true
}

// RequireHumanApproval flags the session as waiting for a human decision. The
// status is advisory: nothing blocks on it at this layer.
func (m *Manager) RequireHumanApproval(sessionID, reason string, data map[string]any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}

	now := m.now()
	s.Status = StatusWaitingForApproval
	s.DecisionTrail = append(s.DecisionTrail, map[string]any{
		"reason":    reason,
		"timestamp": now.Format(time.RFC3339),
		"data":      data,
		"status":    "pending",
	})
	s.UpdatedAt = now
	m.logger.Info("session waiting for approval", "session_id", sessionID, "reason", reason)
	return true
}

// ResolveApproval records the human decision on a session flagged by
// RequireHumanApproval.
func (m *Manager) ResolveApproval(sessionID string, approved bool, notes string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.Status != StatusWaitingForApproval {
		return false
	}

	now := m.now()
	if approved {
		s.Status = StatusApproved
	} else {
		s.Status = StatusRejected
	}
	s.DecisionTrail = append(s.DecisionTrail, map[string]any{
		"approved":  approved,
		"notes":     notes,
		"timestamp": now.Format(time.RFC3339),
		"status":    string(s.Status),
	})
	s.UpdatedAt = now
	return true
}

// SetFinalRecommendation stores the negotiated outcome on the session.
func (m *Manager) SetFinalRecommendation(sessionID string, rec map[string]any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return false
	}
	s.FinalRecommendation = rec
	s.UpdatedAt = m.now()
	return true
}

// CleanupExpiredSessions removes sessions whose last update is older than the
// TTL and returns how many were removed.
func (m *Manager) CleanupExpiredSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-m.ttl)
	removed := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("expired sessions removed", "count", removed)
	}
	return removed
}

// ExportSummary renders the session as plain maps and slices for reporting
// and auditing.
func (m *Manager) ExportSummary(sessionID string) (map[string]any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}

	completed := []any{}
	for _, step := range s.Steps {
		if step.Status == StatusCompleted {
			completed = append(completed, step.Name)
		}
	}

	trail := make([]any, len(s.DecisionTrail))
	for i, d := range s.DecisionTrail {
		trail[i] = d
	}

	return map[string]any{
		"session_id": s.ID,
		"request": map[string]any{
			"request_id":       s.Request.ID,
			"item_description": s.Request.ItemDescription,
			"quantity":         float64(s.Request.Quantity),
			"budget":           s.Request.Budget,
			"urgency":          s.Request.Urgency,
			"category":         s.Request.Category,
			"requested_by":     s.Request.RequestedBy,
		},
		"status":               string(s.Status),
		"steps_completed":      completed,
		"current_step":         s.CurrentStep,
		"decision_trail":       trail,
		"final_recommendation": s.FinalRecommendation,
		"duration_seconds":     s.UpdatedAt.Sub(s.CreatedAt).Seconds(),
		"message_count":        float64(len(s.Messages)),
	}, true
}

func stepIndex(stepID string) int {
	for i, id := range stepOrder {
		if id == stepID {
			return i
		}
	}
	return -1
}

// snapshot copies the session so callers cannot mutate managed state.
func snapshot(s *Session) Session {
	cp := *s
	cp.Steps = append([]Step(nil), s.Steps...)
	cp.Messages = append([]core.Envelope(nil), s.Messages...)
	cp.DecisionTrail = append([]map[string]any(nil), s.DecisionTrail...)
	cp.AgentStates = make(map[string]map[string]any, len(s.AgentStates))
	for k, v := range s.AgentStates {
		cp.AgentStates[k] = v
	}
	return cp
}
