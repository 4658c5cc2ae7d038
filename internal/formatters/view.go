package formatters

import (
	"strconv"

	"careeros/internal/state"
	"careeros/internal/types"
)

// Display defaults for fields the service leaves empty
const (
	defaultName             = "Candidate"
	defaultContact          = "Not found"
	defaultJobType          = "Full Time"
	defaultSalary           = "Best in Industry"
	defaultCardApplicants   = 40
	defaultDetailApplicants = 42
	defaultDaysLeft         = 5
	defaultPosted           = "Posted recently"
	defaultExperience       = "Experience Required"
	defaultNodeStatus       = "Pending"
	defaultDescription      = "No description available. Click apply to view full details on the carrier's website."
	busyLabel               = "Analyzing Profile..."
)

var phaseHeadings = map[string]string{
	types.PhaseBasics:       "Foundations & Core Concepts",
	types.PhaseIntermediate: "Building Competency",
	types.PhaseAdvanced:     "Mastery & Optimization",
}

var pendingLabels = map[state.Operation]string{
	state.OpUpload:     "Uploading resume",
	state.OpMatches:    "Fetching matches",
	state.OpRoadmap:    "Generating roadmap",
	state.OpFeedback:   "Logging feedback",
	state.OpPostMortem: "Analyzing rejection",
	state.OpAudit:      "Running ATS check",
	state.OpTailor:     "Tailoring resume",
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// intOrDefault treats zero like a missing value
func intOrDefault(value *int, fallback int) int {
	if value == nil || *value == 0 {
		return fallback
	}
	return *value
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

// phaseGroup is one non-empty roadmap phase; Index is its fixed position
type phaseGroup struct {
	Index   int
	Phase   string
	Heading string
	Nodes   []types.RoadmapNode
}

func roadmapPhases(r *types.Roadmap) []phaseGroup {
	if r == nil {
		return nil
	}
	var groups []phaseGroup
	for i, phase := range types.Phases {
		nodes := r.NodesInPhase(phase)
		if len(nodes) == 0 {
			continue
		}
		groups = append(groups, phaseGroup{
			Index:   i + 1,
			Phase:   phase,
			Heading: phaseHeadings[phase],
			Nodes:   nodes,
		})
	}
	return groups
}

// pendingOperations lists the in-flight operations in a stable order
func pendingOperations(s state.State) []string {
	var labels []string
	for _, op := range state.Operations {
		if s.Pending(op) {
			labels = append(labels, pendingLabels[op])
		}
	}
	return labels
}
