package sectors

// Per-rule reweighting goals. Like the rule thresholds these are carried
// heuristics, not derived values.
const (
	overweightTargetHard = 25.0
	overweightTargetSoft = 30.0

	correlatedReduction = 0.7
	correlatedFloor     = 15.0

	defensiveTargetHard = 8.0
	defensiveTargetSoft = 5.0

	reitTarget            = 15.0
	energyMaterialsTarget = 12.0
)

// DeriveTargets turns a failing report into per-sector allocation targets.
// Targets bias candidate sampling and drive the iterative adjuster; sectors
// with passing checks get no entry. Priority mirrors the severity of the
// originating check.
func DeriveTargets(report Report) map[string]TargetAdjustment {
	targets := make(map[string]TargetAdjustment)
	weights := report.SectorWeights

	set := func(sector string, target float64, priority CheckStatus) {
		current := weights[sector]
		existing, ok := targets[sector]
		// A harder check wins when two rules touch the same sector.
		if ok && severityRank(existing.Priority) >= severityRank(priority) {
			return
		}
		targets[sector] = TargetAdjustment{
			Current:  current,
			Target:   target,
			Delta:    target - current,
			Priority: priority,
		}
	}

	for _, check := range report.Checks {
		if check.Status == StatusOK {
			continue
		}

		switch check.Rule {
		case 1:
			target := overweightTargetSoft
			if check.Status == StatusHardViolation {
				target = overweightTargetHard
			}
			set(check.Sector, target, check.Status)

		case 2:
			for _, member := range check.Members {
				target := weights[member] * correlatedReduction
				if target < correlatedFloor {
					target = correlatedFloor
				}
				set(member, target, check.Status)
			}

		case 3:
			target := defensiveTargetSoft
			if check.Status == StatusHardViolation {
				target = defensiveTargetHard
			}
			for _, member := range check.Members {
				if weights[member] < target {
					set(member, target, check.Status)
				}
			}

		case 4:
			// Scale each real-estate sector down proportionally to the cap.
			if check.Value <= 0 {
				continue
			}
			for _, member := range check.Members {
				set(member, weights[member]/check.Value*reitTarget, check.Status)
			}

		case 5:
			for _, member := range check.Members {
				if weights[member] > energyMaterialsTarget {
					set(member, energyMaterialsTarget, check.Status)
				}
			}
		}
	}

	return targets
}

func severityRank(s CheckStatus) int {
	switch s {
	case StatusHardViolation:
		return 3
	case StatusSoftWarning:
		return 2
	case StatusAdvisory:
		return 1
	}
	return 0
}
