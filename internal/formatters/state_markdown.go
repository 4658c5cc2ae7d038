package formatters

import (
	"fmt"
	"strings"

	"careeros/internal/state"
	"careeros/internal/types"
)

// StateMarkdownFormatter renders the session view as markdown
type StateMarkdownFormatter struct{}

func (smf *StateMarkdownFormatter) Format(data any) (string, error) {
	s, err := asState(data)
	if err != nil {
		return "", err
	}

	var output strings.Builder

	output.WriteString("# CareerOS\n\n")

	if pending := pendingOperations(s); len(pending) > 0 {
		output.WriteString(fmt.Sprintf("_In progress: %s_\n\n", strings.Join(pending, ", ")))
	}

	if s.Toast.Message != "" {
		output.WriteString(fmt.Sprintf("> %s\n\n", s.Toast.Message))
	}

	if s.Profile == nil {
		output.WriteString("## Upload your Resume\n\n")
		if s.Pending(state.OpUpload) {
			output.WriteString("_" + busyLabel + "_\n\n")
		}
		output.WriteString("Supported format: PDF only\n")
		return output.String(), nil
	}

	profile := s.Profile.Data
	output.WriteString("## Candidate Profile\n\n")
	output.WriteString(fmt.Sprintf("- **Name:** %s\n", orDefault(profile.Name, defaultName)))
	output.WriteString(fmt.Sprintf("- **Email:** %s\n", orDefault(profile.Email, defaultContact)))
	output.WriteString(fmt.Sprintf("- **Phone:** %s\n", orDefault(profile.Phone, defaultContact)))
	if len(profile.HardSkills) > 0 {
		output.WriteString(fmt.Sprintf("- **Skills:** %s\n", strings.Join(profile.HardSkills, ", ")))
	}
	output.WriteString("\n")

	output.WriteString("## Market Opportunities\n\n")
	if len(s.Matches) == 0 {
		output.WriteString("No matches found.\n\n")
	} else {
		output.WriteString("| # | Role | Company | Type | Salary | Applied | Match |\n")
		output.WriteString("|---|------|---------|------|--------|---------|-------|\n")
		for i, job := range s.Matches {
			output.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %d | %s%% |\n",
				i+1, job.Title, job.Company,
				orDefault(job.JobType, defaultJobType),
				orDefault(job.Salary, defaultSalary),
				intOrDefault(job.Applicants, defaultCardApplicants),
				formatScore(job.Score)))
		}
		output.WriteString("\n")
	}

	if s.Roadmap != nil {
		output.WriteString("## Strategic Execution Plan\n\n")
		output.WriteString("_AI-Generated Dependency Graph_\n\n")
		for _, group := range roadmapPhases(s.Roadmap) {
			output.WriteString(fmt.Sprintf("### %d. %s\n\n", group.Index, group.Phase))
			output.WriteString(fmt.Sprintf("_%s_\n\n", group.Heading))
			for _, node := range group.Nodes {
				output.WriteString(fmt.Sprintf("- **%s** %s `%s`\n",
					node.Week, node.Label, orDefault(node.Status, defaultNodeStatus)))
				if node.Description != "" {
					output.WriteString(fmt.Sprintf("  %s\n", node.Description))
				}
			}
			output.WriteString("\n")
		}
	}

	if job, ok := s.SelectedJob(); ok {
		writeJobDetailMarkdown(&output, job)
	}

	if pm := s.PostMortem; pm != nil {
		output.WriteString("## Post-Mortem Analysis\n\n")
		output.WriteString("### Root Cause\n")
		output.WriteString(pm.RootCause)
		output.WriteString("\n\n")
		output.WriteString("### Corrective Action\n")
		output.WriteString(pm.CorrectiveAction)
		output.WriteString("\n\n")
		if len(pm.Resources) > 0 {
			output.WriteString("### Recommended Resources\n")
			for _, resource := range pm.Resources {
				output.WriteString(fmt.Sprintf("- %s\n", resource))
			}
			output.WriteString("\n")
		}
	}

	if audit := s.Audit; audit != nil {
		output.WriteString("## ATS Audit\n\n")
		output.WriteString(fmt.Sprintf("**Score:** %s/100\n\n", formatScore(audit.Score)))
		if audit.Summary != "" {
			output.WriteString(audit.Summary)
			output.WriteString("\n\n")
		}
		for _, section := range audit.Sections {
			output.WriteString(fmt.Sprintf("### %s (%s/100, %s)\n", section.Name, formatScore(section.Score), section.Status))
			for _, issue := range section.Issues {
				output.WriteString(fmt.Sprintf("- **Issue:** %s\n", issue))
			}
			for _, suggestion := range section.Suggestions {
				output.WriteString(fmt.Sprintf("- **Suggestion:** %s\n", suggestion))
			}
			output.WriteString("\n")
		}
		if len(audit.MissingKeywords) > 0 {
			output.WriteString(fmt.Sprintf("**Missing Keywords:** %s\n\n", strings.Join(audit.MissingKeywords, ", ")))
		}
	}

	if tailor := s.Tailor; tailor != nil {
		output.WriteString("## Tailored Bullets\n\n")
		for _, bullet := range tailor.TailoredBullets {
			output.WriteString(fmt.Sprintf("- %s\n", bullet))
		}
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (smf *StateMarkdownFormatter) SupportedType() string {
	return "State"
}

func writeJobDetailMarkdown(output *strings.Builder, job *types.Job) {
	output.WriteString(fmt.Sprintf("## %s\n\n", job.Title))
	output.WriteString(fmt.Sprintf("**%s** · %s · %s · %s\n\n",
		job.Company,
		orDefault(job.PostedDate, defaultPosted),
		orDefault(job.JobType, defaultJobType),
		orDefault(job.Experience, defaultExperience)))
	output.WriteString("### Description\n")
	output.WriteString(orDefault(job.Description, defaultDescription))
	output.WriteString("\n\n")
	if skills := job.SkillList(); len(skills) > 0 {
		output.WriteString("### Skills\n")
		for _, skill := range skills {
			output.WriteString(fmt.Sprintf("- %s\n", skill))
		}
		output.WriteString("\n")
	}
	output.WriteString(fmt.Sprintf("%d Applied · %d Days Left · **%s%%** match\n\n",
		intOrDefault(job.Applicants, defaultDetailApplicants),
		intOrDefault(job.DaysLeft, defaultDaysLeft),
		formatScore(job.Score)))
	if job.URL != "" {
		output.WriteString(fmt.Sprintf("[Apply](%s)\n\n", job.URL))
	}
}
