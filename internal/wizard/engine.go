// Package wizard drives the profile-collection conversation as a pure state
// machine. Advance takes the current session and one inbound event and
// returns the outbound effects; all transport and storage happens in the
// dispatch layer, which keeps every transition unit-testable.
package wizard

import (
	"fmt"
	"strings"

	"cvbot_backend/internal/i18n"
	"cvbot_backend/internal/profile"
	"cvbot_backend/internal/session"
	"cvbot_backend/platform/logger"
	"cvbot_backend/platform/phone"
	"cvbot_backend/platform/validator"
)

const skipSentinel = "skip"

var allowedUploadTypes = "oneof=image/jpeg image/png application/pdf"

type Engine struct {
	validate  *validator.Validator
	maxUpload int64
	log       *logger.Logger
}

func NewEngine(v *validator.Validator, maxUploadBytes int64, log *logger.Logger) *Engine {
	return &Engine{validate: v, maxUpload: maxUploadBytes, log: log}
}

// scalarField is one single-value question.
type scalarField struct {
	key      i18n.Key
	optional bool
	validate func(e *Engine, text string) (string, error)
	assign   func(p *profile.Profile, v *string)
}

var personalFields = []scalarField{
	{key: i18n.KeyFirstName, assign: func(p *profile.Profile, v *string) { p.FirstName = *v }},
	{key: i18n.KeyMiddleName, assign: func(p *profile.Profile, v *string) { p.MiddleName = *v }},
	{key: i18n.KeyLastName, assign: func(p *profile.Profile, v *string) { p.LastName = *v }},
	{
		key: i18n.KeyPhoneNumber,
		validate: func(e *Engine, text string) (string, error) {
			return phone.ParseE164(text)
		},
		assign: func(p *profile.Profile, v *string) { p.PhoneNumber = *v },
	},
	{
		key: i18n.KeyEmailAddress,
		validate: func(e *Engine, text string) (string, error) {
			if err := e.validate.Var(text, "email"); err != nil {
				return "", err
			}
			return text, nil
		},
		assign: func(p *profile.Profile, v *string) { p.EmailAddress = *v },
	},
	{key: i18n.KeyLinkedInProfile, optional: true, assign: func(p *profile.Profile, v *string) { p.LinkedInProfile = v }},
	{key: i18n.KeyCity, assign: func(p *profile.Profile, v *string) { p.City = *v }},
	{key: i18n.KeyCountry, assign: func(p *profile.Profile, v *string) { p.Country = *v }},
}

// itemField is one question inside a repeated-section item.
type itemField struct {
	key      i18n.Key
	optional bool
}

// firstFieldSkip says what a skip on a section's first field does.
type firstFieldSkip int

const (
	skipNotAllowed firstFieldSkip = iota
	skipClearsAndAdvances
	skipToDecision
)

// sectionDef parameterizes the repeated-section loop so every section shares
// one implementation.
type sectionDef struct {
	fields    []itemField
	firstKey  i18n.Key // overrides fields[0].key on section entry
	skipMode  firstFieldSkip
	next      session.Phase
	nextEntry func(e *Engine, sess *session.Session) []Effect
	append    func(p *profile.Profile, vals []*string)
	clear     func(p *profile.Profile)
}

var sections map[session.Phase]*sectionDef

func init() {
	sections = map[session.Phase]*sectionDef{
		session.PhaseWork: {
			fields: []itemField{
				{key: i18n.KeyJobTitle},
				{key: i18n.KeyCompanyName},
				{key: i18n.KeyWorkLocation},
				{key: i18n.KeyWorkDescription},
			},
			firstKey: i18n.KeyJobTitleWithSkip,
			skipMode: skipClearsAndAdvances,
			next:     session.PhaseEducation,
			append: func(p *profile.Profile, vals []*string) {
				p.WorkExperiences = append(p.WorkExperiences, profile.WorkExperience{
					JobTitle:    *vals[0],
					CompanyName: *vals[1],
					Location:    *vals[2],
					Description: *vals[3],
				})
			},
			clear: func(p *profile.Profile) { p.WorkExperiences = nil },
		},
		session.PhaseEducation: {
			fields: []itemField{
				{key: i18n.KeyDegreeName},
				{key: i18n.KeyInstitutionName},
				{key: i18n.KeyGPA, optional: true},
				{key: i18n.KeyEduDescription},
				{key: i18n.KeyAchievements, optional: true},
			},
			next: session.PhaseSkills,
			append: func(p *profile.Profile, vals []*string) {
				p.Education = append(p.Education, profile.EducationEntry{
					DegreeName:      *vals[0],
					InstitutionName: *vals[1],
					GPA:             vals[2],
					Description:     *vals[3],
					Achievements:    vals[4],
				})
			},
			clear: func(p *profile.Profile) { p.Education = nil },
		},
		session.PhaseSkills: {
			fields: []itemField{
				{key: i18n.KeySkillName},
				{key: i18n.KeySkillProficiency},
			},
			next: session.PhaseCareerObjective,
			append: func(p *profile.Profile, vals []*string) {
				p.Skills = append(p.Skills, profile.Skill{SkillName: *vals[0], Proficiency: *vals[1]})
			},
			clear: func(p *profile.Profile) { p.Skills = nil },
		},
		session.PhaseCertifications: {
			fields: []itemField{
				{key: i18n.KeyCertificateName},
				{key: i18n.KeyIssuer},
			},
			skipMode: skipToDecision,
			next:     session.PhaseProjects,
			append: func(p *profile.Profile, vals []*string) {
				p.Certifications = append(p.Certifications, profile.Certification{
					CertificateName: *vals[0],
					Issuer:          *vals[1],
				})
			},
			clear: func(p *profile.Profile) { p.Certifications = nil },
		},
		session.PhaseProjects: {
			fields: []itemField{
				{key: i18n.KeyProjectTitle},
				{key: i18n.KeyProjectDescription},
				{key: i18n.KeyProjectLink, optional: true},
			},
			next: session.PhaseLanguages,
			append: func(p *profile.Profile, vals []*string) {
				p.Projects = append(p.Projects, profile.Project{
					ProjectTitle: *vals[0],
					Description:  *vals[1],
					ProjectLink:  vals[2],
				})
			},
			clear: func(p *profile.Profile) { p.Projects = nil },
		},
		session.PhaseLanguages: {
			fields: []itemField{
				{key: i18n.KeyLanguageName},
				{key: i18n.KeyLangProficiency},
			},
			next: session.PhaseActivities,
			append: func(p *profile.Profile, vals []*string) {
				p.Languages = append(p.Languages, profile.LanguageSkill{
					LanguageName: *vals[0],
					Proficiency:  *vals[1],
				})
			},
			clear: func(p *profile.Profile) { p.Languages = nil },
		},
	}
}

// Start begins (or restarts) the conversation at language selection.
func (e *Engine) Start(sess *session.Session) []Effect {
	sess.ResetFlow()
	sess.Phase = session.PhaseLanguage
	return []Effect{promptKb(i18n.KeySelectLanguage, KbLanguage)}
}

// Advance feeds one event into the state machine. The caller holds the
// session lock.
func (e *Engine) Advance(sess *session.Session, ev Event) []Effect {
	switch sess.Phase {
	case session.PhaseIdle:
		return e.Start(sess)
	case session.PhaseLanguage:
		return e.onLanguage(sess, ev)
	case session.PhaseMenu:
		return e.onMenu(sess, ev)
	case session.PhasePersonal:
		return e.onPersonal(sess, ev)
	case session.PhaseImage:
		return e.onImage(sess, ev)
	case session.PhaseImageMenu:
		if ev.Kind == EventAction && ev.Action == ActionImageContinue {
			return e.enterSection(sess, session.PhaseWork)
		}
		return e.unexpected(sess)
	case session.PhaseWork, session.PhaseEducation, session.PhaseSkills,
		session.PhaseCertifications, session.PhaseProjects, session.PhaseLanguages:
		return e.onSection(sess, ev)
	case session.PhaseCareerObjective:
		return e.onScalarOptional(sess, ev, func(p *profile.Profile, v *string) { p.CareerObjective = v },
			func() []Effect { return e.enterSection(sess, session.PhaseCertifications) })
	case session.PhaseActivities:
		return e.onScalarOptional(sess, ev, func(p *profile.Profile, v *string) { p.OtherActivities = v },
			func() []Effect { return e.showSummary(sess) })
	case session.PhaseSummary:
		return e.onSummary(sess, ev)
	case session.PhaseEditMenu:
		return e.onEditMenu(sess, ev)
	case session.PhaseAwaitingEvidence:
		return e.onEvidence(sess, ev)
	default:
		return e.unexpected(sess)
	}
}

func (e *Engine) onLanguage(sess *session.Session, ev Event) []Effect {
	if ev.Kind != EventAction {
		return e.unexpected(sess)
	}
	switch ev.Action {
	case ActionLangEN:
		sess.Lang = i18n.LangEnglish
	case ActionLangAM:
		sess.Lang = i18n.LangAmharic
	default:
		return e.unexpected(sess)
	}
	sess.Phase = session.PhaseMenu
	key := i18n.KeyWelcome
	if ev.HasProfile {
		key = i18n.KeyWelcomeBack
	}
	return []Effect{promptKb(key, KbMainMenu)}
}

func (e *Engine) onMenu(sess *session.Session, ev Event) []Effect {
	if ev.Kind != EventAction {
		return e.unexpected(sess)
	}
	switch ev.Action {
	case ActionNewCV:
		sess.Profile = nil
		sess.Phase = session.PhasePersonal
		sess.FieldIdx = 0
		return []Effect{prompt(personalFields[0].key)}
	case ActionUpdateProfile:
		if !ev.HasProfile {
			sess.Phase = session.PhasePersonal
			sess.FieldIdx = 0
			return []Effect{prompt(personalFields[0].key)}
		}
		sess.Phase = session.PhaseEditMenu
		return []Effect{{Prompt: i18n.KeyEditSection, Keyboard: KbEditMenu, Command: CmdLoadProfile}}
	case ActionGuideVideo:
		return []Effect{{Command: CmdSendTutorial}, promptKb(i18n.KeyChooseOption, KbMainMenu)}
	case ActionSamples:
		return []Effect{{Command: CmdSendSamples}, promptKb(i18n.KeyChooseOption, KbMainMenu)}
	default:
		return e.unexpected(sess)
	}
}

func (e *Engine) onPersonal(sess *session.Session, ev Event) []Effect {
	if ev.Kind != EventText {
		return e.unexpected(sess)
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return e.unexpected(sess)
	}

	field := personalFields[sess.FieldIdx]
	if field.optional && strings.EqualFold(text, skipSentinel) {
		field.assign(sess.Draft(), nil)
	} else {
		if field.validate != nil {
			normalized, err := field.validate(e, text)
			if err != nil {
				return []Effect{prompt(field.key)}
			}
			text = normalized
		}
		field.assign(sess.Draft(), &text)
	}

	sess.FieldIdx++
	if sess.FieldIdx < len(personalFields) {
		return []Effect{prompt(personalFields[sess.FieldIdx].key)}
	}
	sess.Phase = session.PhaseImage
	sess.FieldIdx = 0
	return []Effect{prompt(i18n.KeyProfileImage)}
}

func (e *Engine) onImage(sess *session.Session, ev Event) []Effect {
	switch ev.Kind {
	case EventText:
		if strings.EqualFold(strings.TrimSpace(ev.Text), skipSentinel) {
			sess.Draft().PhotoRef = nil
			sess.Phase = session.PhaseImageMenu
			return []Effect{promptKb(i18n.KeyProfileImageSkip, KbContinue)}
		}
		return []Effect{prompt(i18n.KeyProfileImage)}
	case EventMedia:
		if corrective, ok := e.checkUpload(ev.Media); !ok {
			return []Effect{prompt(corrective)}
		}
		ref := ev.Media.FileID
		sess.Draft().PhotoRef = &ref
		sess.Phase = session.PhaseImageMenu
		return []Effect{promptKb(i18n.KeyProfileImageOK, KbContinue)}
	default:
		return e.unexpected(sess)
	}
}

// checkUpload gates documents on declared size and MIME type. Photos arrive
// re-encoded by the platform and are accepted as-is.
func (e *Engine) checkUpload(m *Media) (i18n.Key, bool) {
	if m.IsPhoto {
		return "", true
	}
	if err := e.validate.Var(m.Size, fmt.Sprintf("lte=%d", e.maxUpload)); err != nil {
		return i18n.KeyFileTooLarge, false
	}
	if err := e.validate.Var(m.MimeType, allowedUploadTypes); err != nil {
		return i18n.KeyInvalidFileType, false
	}
	return "", true
}

// enterSection moves into a repeated section with a cleared draft item.
func (e *Engine) enterSection(sess *session.Session, phase session.Phase) []Effect {
	sess.Phase = phase
	sess.FieldIdx = 0
	sess.Item = nil
	def := sections[phase]
	key := def.fields[0].key
	if def.firstKey != "" {
		key = def.firstKey
	}
	return []Effect{prompt(key)}
}

// onSection runs the shared collect/append/decide loop for every repeated
// section.
func (e *Engine) onSection(sess *session.Session, ev Event) []Effect {
	def := sections[sess.Phase]

	// Past the last field the section waits for add-another vs continue.
	if sess.FieldIdx >= len(def.fields) {
		if ev.Kind != EventAction {
			return e.unexpected(sess)
		}
		switch ev.Action {
		case ActionAddAnother:
			sess.FieldIdx = 0
			sess.Item = nil
			return []Effect{prompt(def.fields[0].key)}
		case ActionContinue:
			sess.Item = nil
			return e.afterSection(sess, def)
		default:
			return e.unexpected(sess)
		}
	}

	if ev.Kind != EventText {
		return e.unexpected(sess)
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return e.unexpected(sess)
	}

	field := def.fields[sess.FieldIdx]
	isSkip := strings.EqualFold(text, skipSentinel)

	if sess.FieldIdx == 0 && isSkip {
		switch def.skipMode {
		case skipClearsAndAdvances:
			def.clear(sess.Draft())
			return e.afterSection(sess, def)
		case skipToDecision:
			sess.FieldIdx = len(def.fields)
			sess.Item = nil
			return []Effect{promptKb(i18n.KeyAddAnotherPrompt, KbAddAnother)}
		}
	}

	if field.optional && isSkip {
		sess.Item = append(sess.Item, "")
	} else {
		sess.Item = append(sess.Item, text)
	}

	sess.FieldIdx++
	if sess.FieldIdx < len(def.fields) {
		return []Effect{prompt(def.fields[sess.FieldIdx].key)}
	}

	// Item complete: append an immutable copy and offer the decision.
	vals := make([]*string, len(sess.Item))
	for i := range sess.Item {
		if def.fields[i].optional && sess.Item[i] == "" {
			continue
		}
		v := sess.Item[i]
		vals[i] = &v
	}
	def.append(sess.Draft(), vals)
	sess.Item = nil
	return []Effect{promptKb(i18n.KeyAddAnotherPrompt, KbAddAnother)}
}

func (e *Engine) afterSection(sess *session.Session, def *sectionDef) []Effect {
	if _, ok := sections[def.next]; ok {
		return e.enterSection(sess, def.next)
	}
	sess.Phase = def.next
	sess.FieldIdx = 0
	switch def.next {
	case session.PhaseCareerObjective:
		return []Effect{prompt(i18n.KeyCareerObjective)}
	case session.PhaseActivities:
		return []Effect{prompt(i18n.KeyOtherActivities)}
	default:
		return e.unexpected(sess)
	}
}

// onScalarOptional handles the single skip-able free-text states.
func (e *Engine) onScalarOptional(sess *session.Session, ev Event, assign func(p *profile.Profile, v *string), next func() []Effect) []Effect {
	if ev.Kind != EventText {
		return e.unexpected(sess)
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return e.unexpected(sess)
	}
	if strings.EqualFold(text, skipSentinel) {
		assign(sess.Draft(), nil)
	} else {
		assign(sess.Draft(), &text)
	}
	return next()
}

func (e *Engine) showSummary(sess *session.Session) []Effect {
	sess.Phase = session.PhaseSummary
	return []Effect{{Summary: true, Keyboard: KbConfirmEdit}}
}

func (e *Engine) onSummary(sess *session.Session, ev Event) []Effect {
	if ev.Kind != EventAction {
		return e.unexpected(sess)
	}
	switch ev.Action {
	case ActionConfirm:
		sess.Phase = session.PhaseAwaitingEvidence
		sess.Notified = false
		return []Effect{{Command: CmdPersistAndOrder}}
	case ActionEditRestart:
		// Everything except language restarts from scratch.
		lang := sess.Lang
		chatID := sess.ChatID
		sess.ResetFlow()
		sess.Lang = lang
		sess.ChatID = chatID
		sess.Phase = session.PhasePersonal
		return []Effect{prompt(personalFields[0].key)}
	default:
		return e.unexpected(sess)
	}
}

func (e *Engine) onEditMenu(sess *session.Session, ev Event) []Effect {
	if ev.Kind != EventAction {
		return e.unexpected(sess)
	}
	switch ev.Action {
	case ActionEditPersonal:
		sess.Phase = session.PhasePersonal
		sess.FieldIdx = 0
		return []Effect{prompt(personalFields[0].key)}
	case ActionEditContact:
		sess.Phase = session.PhasePersonal
		sess.FieldIdx = 3 // phone number onwards
		return []Effect{prompt(personalFields[3].key)}
	case ActionEditImage:
		sess.Phase = session.PhaseImage
		return []Effect{prompt(i18n.KeyProfileImage)}
	case ActionEditWork:
		sections[session.PhaseWork].clear(sess.Draft())
		return e.enterSection(sess, session.PhaseWork)
	case ActionEditEducation:
		sections[session.PhaseEducation].clear(sess.Draft())
		return e.enterSection(sess, session.PhaseEducation)
	case ActionEditSkills:
		sections[session.PhaseSkills].clear(sess.Draft())
		return e.enterSection(sess, session.PhaseSkills)
	case ActionEditCareer:
		sess.Draft().CareerObjective = nil
		sess.Phase = session.PhaseCareerObjective
		return []Effect{prompt(i18n.KeyCareerObjective)}
	case ActionEditCerts:
		sections[session.PhaseCertifications].clear(sess.Draft())
		return e.enterSection(sess, session.PhaseCertifications)
	case ActionEditProjects:
		sections[session.PhaseProjects].clear(sess.Draft())
		return e.enterSection(sess, session.PhaseProjects)
	case ActionEditLanguages:
		sections[session.PhaseLanguages].clear(sess.Draft())
		return e.enterSection(sess, session.PhaseLanguages)
	case ActionEditActivity:
		sess.Draft().OtherActivities = nil
		sess.Phase = session.PhaseActivities
		return []Effect{prompt(i18n.KeyOtherActivities)}
	default:
		return e.unexpected(sess)
	}
}

func (e *Engine) onEvidence(sess *session.Session, ev Event) []Effect {
	if ev.Kind != EventMedia {
		return []Effect{prompt(i18n.KeyPaymentRetryInstr)}
	}
	if corrective, ok := e.checkUpload(ev.Media); !ok {
		return []Effect{prompt(corrective)}
	}
	return []Effect{{Command: CmdSubmitEvidence, FileRef: ev.Media.FileID}}
}

// unexpected re-prompts without changing state so a stray message never
// derails the conversation.
func (e *Engine) unexpected(_ *session.Session) []Effect {
	return []Effect{prompt(i18n.KeyUnexpectedInput)}
}
