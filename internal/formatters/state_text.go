package formatters

import (
	"fmt"
	"strings"

	"careeros/internal/state"
	"careeros/internal/types"
)

// StateTextFormatter renders the session view as plain text
type StateTextFormatter struct{}

func (stf *StateTextFormatter) Format(data any) (string, error) {
	s, err := asState(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("=== CAREEROS ===\n\n")

	if pending := pendingOperations(s); len(pending) > 0 {
		output.WriteString(fmt.Sprintf("In progress: %s\n\n", strings.Join(pending, ", ")))
	}

	if s.Toast.Message != "" {
		output.WriteString(fmt.Sprintf(">> %s\n\n", s.Toast.Message))
	}

	if s.Profile == nil {
		output.WriteString("=== UPLOAD YOUR RESUME ===\n")
		if s.Pending(state.OpUpload) {
			output.WriteString(busyLabel + "\n")
		}
		output.WriteString("Supported format: PDF only\n")
		return output.String(), nil
	}

	writeProfileText(&output, s.Profile)
	writeMatchesText(&output, s.Matches)

	if s.Roadmap != nil {
		writeRoadmapText(&output, s.Roadmap)
	}
	if job, ok := s.SelectedJob(); ok {
		writeJobDetailText(&output, job)
	}
	if s.PostMortem != nil {
		writePostMortemText(&output, s.PostMortem)
	}
	if s.Audit != nil {
		writeAuditText(&output, s.Audit)
	}
	if s.Tailor != nil {
		writeTailorText(&output, s.Tailor)
	}

	return output.String(), nil
}

func (stf *StateTextFormatter) SupportedType() string {
	return "State"
}

func writeProfileText(output *strings.Builder, profile *types.Profile) {
	output.WriteString("=== CANDIDATE PROFILE ===\n")
	output.WriteString(fmt.Sprintf("Name: %s\n", orDefault(profile.Data.Name, defaultName)))
	output.WriteString(fmt.Sprintf("Email: %s\n", orDefault(profile.Data.Email, defaultContact)))
	output.WriteString(fmt.Sprintf("Phone: %s\n", orDefault(profile.Data.Phone, defaultContact)))
	if len(profile.Data.HardSkills) > 0 {
		output.WriteString(fmt.Sprintf("Skills: %s\n", strings.Join(profile.Data.HardSkills, ", ")))
	}
	output.WriteString("\n")
}

func writeMatchesText(output *strings.Builder, jobs []types.Job) {
	output.WriteString("=== MARKET OPPORTUNITIES ===\n")
	if len(jobs) == 0 {
		output.WriteString("No matches found.\n\n")
		return
	}
	for i, job := range jobs {
		output.WriteString(fmt.Sprintf("%d. %s - %s [%s]\n", i+1, job.Title, job.Company, job.JobID))
		output.WriteString(fmt.Sprintf("   %s | %s | %d Applied | %s%% Match\n",
			orDefault(job.JobType, defaultJobType),
			orDefault(job.Salary, defaultSalary),
			intOrDefault(job.Applicants, defaultCardApplicants),
			formatScore(job.Score)))
	}
	output.WriteString("\n")
}

func writeRoadmapText(output *strings.Builder, roadmap *types.Roadmap) {
	output.WriteString("=== STRATEGIC EXECUTION PLAN ===\n")
	output.WriteString("AI-Generated Dependency Graph\n\n")
	for _, group := range roadmapPhases(roadmap) {
		output.WriteString(fmt.Sprintf("%d. %s: %s\n", group.Index, group.Phase, group.Heading))
		for _, node := range group.Nodes {
			output.WriteString(fmt.Sprintf("   [%s] %s (%s)\n",
				node.Week, node.Label, orDefault(node.Status, defaultNodeStatus)))
			if node.Description != "" {
				output.WriteString(fmt.Sprintf("       %s\n", node.Description))
			}
		}
		output.WriteString("\n")
	}
}

func writeJobDetailText(output *strings.Builder, job *types.Job) {
	output.WriteString("=== JOB DETAILS ===\n")
	output.WriteString(fmt.Sprintf("%s\n", job.Title))
	output.WriteString(fmt.Sprintf("%s | %s\n", job.Company, orDefault(job.PostedDate, defaultPosted)))
	output.WriteString(fmt.Sprintf("%s | %s\n\n",
		orDefault(job.JobType, defaultJobType),
		orDefault(job.Experience, defaultExperience)))
	output.WriteString("Description:\n")
	output.WriteString(orDefault(job.Description, defaultDescription))
	output.WriteString("\n\n")
	if skills := job.SkillList(); len(skills) > 0 {
		output.WriteString("Skills:\n")
		for _, skill := range skills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}
	output.WriteString(fmt.Sprintf("%d Applied | %d Days Left | %s%% match\n",
		intOrDefault(job.Applicants, defaultDetailApplicants),
		intOrDefault(job.DaysLeft, defaultDaysLeft),
		formatScore(job.Score)))
	if job.URL != "" {
		output.WriteString(fmt.Sprintf("Apply: %s\n", job.URL))
	}
	output.WriteString("\n")
}

func writePostMortemText(output *strings.Builder, pm *types.PostMortem) {
	output.WriteString("=== POST-MORTEM ANALYSIS ===\n")
	output.WriteString("Understanding the gap\n\n")
	output.WriteString("Root Cause:\n")
	output.WriteString(pm.RootCause)
	output.WriteString("\n\n")
	output.WriteString("Corrective Action:\n")
	output.WriteString(pm.CorrectiveAction)
	output.WriteString("\n\n")
	if len(pm.Resources) > 0 {
		output.WriteString("Recommended Resources:\n")
		for _, resource := range pm.Resources {
			output.WriteString(fmt.Sprintf("- %s\n", resource))
		}
		output.WriteString("\n")
	}
}

func writeAuditText(output *strings.Builder, audit *types.AuditReport) {
	output.WriteString("=== ATS AUDIT ===\n")
	output.WriteString(fmt.Sprintf("Score: %s/100\n\n", formatScore(audit.Score)))
	if audit.Summary != "" {
		output.WriteString("Summary:\n")
		output.WriteString(audit.Summary)
		output.WriteString("\n\n")
	}
	for _, section := range audit.Sections {
		output.WriteString(fmt.Sprintf("%s: %s/100 (%s)\n", section.Name, formatScore(section.Score), section.Status))
		for _, issue := range section.Issues {
			output.WriteString(fmt.Sprintf("   ! %s\n", issue))
		}
		for _, suggestion := range section.Suggestions {
			output.WriteString(fmt.Sprintf("   + %s\n", suggestion))
		}
	}
	if len(audit.Sections) > 0 {
		output.WriteString("\n")
	}
	if len(audit.MissingKeywords) > 0 {
		output.WriteString(fmt.Sprintf("Missing Keywords: %s\n\n", strings.Join(audit.MissingKeywords, ", ")))
	}
}

func writeTailorText(output *strings.Builder, tailor *types.TailorResult) {
	output.WriteString(fmt.Sprintf("=== TAILORED BULLETS (%s) ===\n", tailor.JobID))
	for _, bullet := range tailor.TailoredBullets {
		output.WriteString(fmt.Sprintf("- %s\n", bullet))
	}
	output.WriteString("\n")
}
