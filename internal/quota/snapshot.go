package quota

// CredentialStatus is the redacted view of one credential. Secrets never
// leave the package; the ledger ID is already a hash.
type CredentialStatus struct {
	ID         string `json:"id"`
	UsageCount int    `json:"usage_count"`
	MonthlyCap int    `json:"monthly_cap"`
	Saturated  bool   `json:"saturated"`
}

// Snapshot is a point-in-time copy of the quota state for the status API.
type Snapshot struct {
	Month       int                `json:"month"`
	Year        int                `json:"year"`
	Allocation  int                `json:"allocation"`
	Used        int                `json:"used"`
	Remaining   int                `json:"remaining"`
	Credentials []CredentialStatus `json:"credentials"`
}

func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Month:      m.month,
		Year:       m.year,
		Allocation: m.allocation,
		Used:       m.monthUsage,
		Remaining:  m.allocation - m.monthUsage,
	}
	if snap.Remaining < 0 {
		snap.Remaining = 0
	}
	for _, c := range m.creds {
		snap.Credentials = append(snap.Credentials, CredentialStatus{
			ID:         c.ID,
			UsageCount: c.UsageCount,
			MonthlyCap: c.MonthlyCap,
			Saturated:  c.Saturated(),
		})
	}
	return snap
}
