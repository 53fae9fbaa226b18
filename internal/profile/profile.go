// Package profile holds the candidate profile aggregate collected by the
// conversation flow and its persistence.
package profile

import "time"

// Profile is the full CV profile for one candidate.
type Profile struct {
	ID              string
	TelegramUserID  int64
	FirstName       string
	MiddleName      string
	LastName        string
	PhoneNumber     string
	EmailAddress    string
	LinkedInProfile *string
	City            string
	Country         string
	PhotoRef        *string
	CareerObjective *string
	OtherActivities *string

	WorkExperiences []WorkExperience
	Education       []EducationEntry
	Skills          []Skill
	Certifications  []Certification
	Projects        []Project
	Languages       []LanguageSkill

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins the name parts for display.
func (p *Profile) FullName() string {
	name := p.FirstName
	if p.MiddleName != "" {
		name += " " + p.MiddleName
	}
	if p.LastName != "" {
		name += " " + p.LastName
	}
	return name
}

type WorkExperience struct {
	JobTitle    string
	CompanyName string
	Location    string
	Description string
}

type EducationEntry struct {
	DegreeName      string
	InstitutionName string
	GPA             *string
	Description     string
	Achievements    *string
}

type Skill struct {
	SkillName   string
	Proficiency string
}

type Certification struct {
	CertificateName string
	Issuer          string
}

type Project struct {
	ProjectTitle string
	Description  string
	ProjectLink  *string
}

type LanguageSkill struct {
	LanguageName string
	Proficiency  string
}
