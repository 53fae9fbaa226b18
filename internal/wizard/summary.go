package wizard

import (
	"fmt"
	"strings"

	"cvbot_backend/internal/i18n"
	"cvbot_backend/internal/profile"
)

// RenderSummary formats the accumulated profile as one HTML block for the
// confirmation step.
func RenderSummary(lang i18n.Lang, p *profile.Profile) string {
	var b strings.Builder

	b.WriteString("<b>" + esc(p.FullName()) + "</b>\n")
	b.WriteString(esc(p.PhoneNumber) + " | " + esc(p.EmailAddress) + "\n")
	b.WriteString(esc(p.City) + ", " + esc(p.Country) + "\n")
	if p.LinkedInProfile != nil {
		b.WriteString(esc(*p.LinkedInProfile) + "\n")
	}

	if p.CareerObjective != nil {
		section(&b, lang, i18n.KeySectionCareer)
		b.WriteString(esc(*p.CareerObjective) + "\n")
	}

	if len(p.WorkExperiences) > 0 {
		section(&b, lang, i18n.KeySectionWork)
		for _, w := range p.WorkExperiences {
			fmt.Fprintf(&b, "• %s, %s (%s)\n  %s\n",
				esc(w.JobTitle), esc(w.CompanyName), esc(w.Location), esc(w.Description))
		}
	}

	if len(p.Education) > 0 {
		section(&b, lang, i18n.KeySectionEducation)
		for _, e := range p.Education {
			fmt.Fprintf(&b, "• %s, %s\n", esc(e.DegreeName), esc(e.InstitutionName))
			if e.GPA != nil {
				fmt.Fprintf(&b, "  GPA: %s\n", esc(*e.GPA))
			}
			if e.Achievements != nil {
				fmt.Fprintf(&b, "  %s\n", esc(*e.Achievements))
			}
		}
	}

	if len(p.Skills) > 0 {
		section(&b, lang, i18n.KeySectionSkills)
		for _, s := range p.Skills {
			fmt.Fprintf(&b, "• %s (%s)\n", esc(s.SkillName), esc(s.Proficiency))
		}
	}

	if len(p.Certifications) > 0 {
		section(&b, lang, i18n.KeySectionCerts)
		for _, c := range p.Certifications {
			fmt.Fprintf(&b, "• %s, %s\n", esc(c.CertificateName), esc(c.Issuer))
		}
	}

	if len(p.Projects) > 0 {
		section(&b, lang, i18n.KeySectionProjects)
		for _, pr := range p.Projects {
			fmt.Fprintf(&b, "• %s: %s\n", esc(pr.ProjectTitle), esc(pr.Description))
			if pr.ProjectLink != nil {
				fmt.Fprintf(&b, "  %s\n", esc(*pr.ProjectLink))
			}
		}
	}

	if len(p.Languages) > 0 {
		section(&b, lang, i18n.KeySectionLanguages)
		for _, l := range p.Languages {
			fmt.Fprintf(&b, "• %s (%s)\n", esc(l.LanguageName), esc(l.Proficiency))
		}
	}

	if p.OtherActivities != nil {
		section(&b, lang, i18n.KeySectionActivities)
		b.WriteString(esc(*p.OtherActivities) + "\n")
	}

	return b.String()
}

func section(b *strings.Builder, lang i18n.Lang, key i18n.Key) {
	b.WriteString("\n<b>" + i18n.T(lang, key) + "</b>\n")
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func esc(s string) string {
	return htmlEscaper.Replace(s)
}
