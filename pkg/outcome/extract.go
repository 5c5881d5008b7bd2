package outcome

import (
	"fmt"
	"maps"

	"github.com/aretw0/turnstile/pkg/domain"
)

// Extract normalizes the raw reward structure of an environment into an Outcome.
// Every agent with a reward must also have details; "invalid_move" and "reason"
// are lifted into typed fields and the remaining keys are kept as extras.
func Extract(rs domain.RewardStructure) (domain.Outcome, error) {
	agents := make(map[int]domain.AgentOutcome, len(rs.Rewards))
	for id, reward := range rs.Rewards {
		details, ok := rs.Details[id]
		if !ok {
			return domain.Outcome{}, fmt.Errorf("no reward details for agent %d", id)
		}

		a := domain.AgentOutcome{Reward: reward}
		extra := maps.Clone(details)

		if v, ok := extra[domain.DetailInvalidMove]; ok {
			b, ok := v.(bool)
			if !ok {
				return domain.Outcome{}, fmt.Errorf("agent %d: %q must be a bool, got %T", id, domain.DetailInvalidMove, v)
			}
			a.InvalidMove = b
			delete(extra, domain.DetailInvalidMove)
		}
		if v, ok := extra[domain.DetailReason]; ok {
			a.Reason = fmt.Sprint(v)
			delete(extra, domain.DetailReason)
		}
		if len(extra) > 0 {
			a.Extra = extra
		}
		agents[id] = a
	}

	for id := range rs.Details {
		if _, ok := rs.Rewards[id]; !ok {
			return domain.Outcome{}, fmt.Errorf("reward details for agent %d without a reward", id)
		}
	}
	return domain.NewOutcome(agents), nil
}

// Details renders the outcome back into the per-agent details shape logged
// under domain.KeyRewardDetails.
func Details(o domain.Outcome) map[int]map[string]any {
	out := make(map[int]map[string]any, o.Len())
	for _, id := range o.AgentIDs() {
		a, _ := o.Agent(id)
		d := maps.Clone(a.Extra)
		if d == nil {
			d = make(map[string]any)
		}
		d[domain.DetailInvalidMove] = a.InvalidMove
		d[domain.DetailReason] = a.Reason
		out[id] = d
	}
	return out
}
