// Package i18n holds the outbound prompt catalogue. The wizard emits prompt
// keys; rendering to a concrete language happens at the dispatch edge.
package i18n

import "fmt"

// Lang is a supported conversation language.
type Lang string

const (
	LangEnglish Lang = "en"
	LangAmharic Lang = "am"
)

// ParseLang maps a language token to a supported language, defaulting to English.
func ParseLang(code string) Lang {
	if Lang(code) == LangAmharic {
		return LangAmharic
	}
	return LangEnglish
}

// Key identifies a single prompt.
type Key string

const (
	KeySelectLanguage     Key = "select_language"
	KeyWelcome            Key = "welcome"
	KeyWelcomeBack        Key = "welcome_back"
	KeyWelcomeNew         Key = "welcome_new"
	KeyChooseOption       Key = "choose_option"
	KeyCreateNewCV        Key = "create_new_cv"
	KeyUpdateProfile      Key = "update_profile"
	KeyGuideVideo         Key = "guide_video"
	KeySamples            Key = "samples"
	KeySendingSamples     Key = "sending_samples"
	KeyTutorialCaption    Key = "tutorial_caption"
	KeyFirstName          Key = "first_name"
	KeyMiddleName         Key = "middle_name"
	KeyLastName           Key = "last_name"
	KeyPhoneNumber        Key = "phone_number"
	KeyEmailAddress       Key = "email_address"
	KeyLinkedInProfile    Key = "linkedin_profile"
	KeyCity               Key = "city"
	KeyCountry            Key = "country"
	KeyProfileImage       Key = "profile_image"
	KeyProfileImageSkip   Key = "profile_image_skip"
	KeyProfileImageOK     Key = "profile_image_ok"
	KeyFileTooLarge       Key = "file_too_large"
	KeyInvalidFileType    Key = "invalid_file_type"
	KeyContinueToWork     Key = "continue_to_work"
	KeyJobTitle           Key = "job_title"
	KeyJobTitleWithSkip   Key = "job_title_with_skip"
	KeyCompanyName        Key = "company_name"
	KeyWorkLocation       Key = "work_location"
	KeyWorkDescription    Key = "work_description"
	KeyDegreeName         Key = "degree_name"
	KeyInstitutionName    Key = "institution_name"
	KeyGPA                Key = "gpa"
	KeyEduDescription     Key = "edu_description"
	KeyAchievements       Key = "achievements"
	KeySkillName          Key = "skill_name"
	KeySkillProficiency   Key = "skill_proficiency"
	KeyCareerObjective    Key = "career_objective"
	KeyCertificateName    Key = "certificate_name"
	KeyIssuer             Key = "issuer"
	KeyProjectTitle       Key = "project_title"
	KeyProjectDescription Key = "project_description"
	KeyProjectLink        Key = "project_link"
	KeyLanguageName       Key = "language_name"
	KeyLangProficiency    Key = "language_proficiency"
	KeyOtherActivities    Key = "other_activities"
	KeyAddAnother         Key = "add_another"
	KeyContinue           Key = "continue"
	KeyAddAnotherPrompt   Key = "add_another_prompt"
	KeyConfirm            Key = "confirm"
	KeyEdit               Key = "edit"
	KeyEditSection        Key = "edit_section"
	KeySectionPersonal    Key = "section_personal"
	KeySectionContact     Key = "section_contact"
	KeySectionImage       Key = "section_image"
	KeySectionWork        Key = "section_work"
	KeySectionEducation   Key = "section_education"
	KeySectionSkills      Key = "section_skills"
	KeySectionCareer      Key = "section_career"
	KeySectionCerts       Key = "section_certs"
	KeySectionProjects    Key = "section_projects"
	KeySectionLanguages   Key = "section_languages"
	KeySectionActivities  Key = "section_activities"
	KeyPaymentInstr       Key = "payment_instructions"
	KeyPaymentRetryInstr  Key = "payment_retry_instructions"
	KeyPaymentReceived    Key = "payment_received"
	KeyPaymentVerified    Key = "payment_verified"
	KeyPaymentRejected    Key = "payment_rejected"
	KeyNoRejectedPayment  Key = "no_rejected_payment"
	KeyCancel             Key = "cancel"
	KeyHelp               Key = "help"
	KeyError              Key = "error"
	KeyUnexpectedInput    Key = "unexpected_input"
)

var english = map[Key]string{
	KeySelectLanguage:     "Welcome! Please choose your language.",
	KeyWelcome:            "Welcome to the CV builder. What would you like to do?",
	KeyWelcomeBack:        "Welcome back! What would you like to do?",
	KeyWelcomeNew:         "Great, let's build your CV.\n\nWhat is your <b>first name</b>?",
	KeyChooseOption:       "Choose an option to continue.",
	KeyCreateNewCV:        "Create a new CV",
	KeyUpdateProfile:      "Update my profile",
	KeyGuideVideo:         "Watch the guide video",
	KeySamples:            "See sample CVs",
	KeySendingSamples:     "Here are a few sample CVs.",
	KeyTutorialCaption:    "A short guide on how this bot works.",
	KeyFirstName:          "What is your first name?",
	KeyMiddleName:         "What is your middle name?",
	KeyLastName:           "What is your last name?",
	KeyPhoneNumber:        "What is your phone number?",
	KeyEmailAddress:       "What is your email address?",
	KeyLinkedInProfile:    "Share your LinkedIn profile link, or send 'skip'.",
	KeyCity:               "Which city do you live in?",
	KeyCountry:            "Which country do you live in?",
	KeyProfileImage:       "Send a profile photo (JPG, PNG or PDF, up to 5 MB), or send 'skip'.",
	KeyProfileImageSkip:   "No problem, we will use your CV without a photo.",
	KeyProfileImageOK:     "Photo received.",
	KeyFileTooLarge:       "That file is too large. Please send a file up to 5 MB.",
	KeyInvalidFileType:    "That file type is not supported. Please send a JPG, PNG or PDF.",
	KeyContinueToWork:     "Continue",
	KeyJobTitle:           "What was your job title?",
	KeyJobTitleWithSkip:   "What was your job title? Send 'skip' if you have no work experience.",
	KeyCompanyName:        "Which company did you work for?",
	KeyWorkLocation:       "Where was this job located?",
	KeyWorkDescription:    "Describe your responsibilities in this role.",
	KeyDegreeName:         "What degree or qualification did you earn?",
	KeyInstitutionName:    "Which institution did you attend?",
	KeyGPA:                "What was your GPA? Send 'skip' if you prefer not to say.",
	KeyEduDescription:     "Briefly describe your studies.",
	KeyAchievements:       "Any achievements or honors? Send 'skip' if none.",
	KeySkillName:          "Name a skill.",
	KeySkillProficiency:   "How proficient are you? (e.g. beginner, intermediate, expert)",
	KeyCareerObjective:    "Write a short career objective, or send 'skip'.",
	KeyCertificateName:    "Name a certification or award. Send 'skip' if none.",
	KeyIssuer:             "Who issued it?",
	KeyProjectTitle:       "What is the project called?",
	KeyProjectDescription: "Describe the project.",
	KeyProjectLink:        "Share a link to the project, or send 'skip'.",
	KeyLanguageName:       "Which language do you speak?",
	KeyLangProficiency:    "How well do you speak it?",
	KeyOtherActivities:    "Any other activities worth mentioning? Send 'skip' if none.",
	KeyAddAnother:         "Add another",
	KeyContinue:           "Continue",
	KeyAddAnotherPrompt:   "Saved. Would you like to add another?",
	KeyConfirm:            "Confirm",
	KeyEdit:               "Edit",
	KeyEditSection:        "Which section would you like to update?",
	KeySectionPersonal:    "Personal info",
	KeySectionContact:     "Contact info",
	KeySectionImage:       "Profile image",
	KeySectionWork:        "Work experience",
	KeySectionEducation:   "Education",
	KeySectionSkills:      "Skills",
	KeySectionCareer:      "Career objective",
	KeySectionCerts:       "Certifications",
	KeySectionProjects:    "Projects",
	KeySectionLanguages:   "Languages",
	KeySectionActivities:  "Other activities",
	KeyPaymentInstr:       "Your order has been created.\n\nPlease transfer the fee to the account below and send a screenshot of the receipt here.",
	KeyPaymentRetryInstr:  "Please send a new screenshot of your payment receipt.",
	KeyPaymentReceived:    "Thank you! Your payment is being verified. We will notify you here.",
	KeyPaymentVerified:    "Your payment has been verified. Your CV is on its way!",
	KeyPaymentRejected:    "Your payment could not be verified: %s\n\nSend /payment to try again.",
	KeyNoRejectedPayment:  "You have no rejected payment to retry.",
	KeyCancel:             "Okay, everything has been cancelled. Send /start to begin again.",
	KeyHelp:               "Send /start to build a CV, /payment to retry a rejected payment, /cancel to stop.",
	KeyError:              "Something went wrong. Please try again.",
	KeyUnexpectedInput:    "Sorry, I did not understand that. Please answer the question above.",
}

var amharic = map[Key]string{
	KeySelectLanguage:    "እንኳን ደህና መጡ! ቋንቋ ይምረጡ።",
	KeyWelcome:           "ወደ CV አገልግሎት እንኳን ደህና መጡ። ምን ማድረግ ይፈልጋሉ?",
	KeyWelcomeBack:       "እንኳን ደህና ተመለሱ! ምን ማድረግ ይፈልጋሉ?",
	KeyWelcomeNew:        "እሺ፣ CVዎን እንስራ።\n\n<b>ስምዎ</b> ማን ነው?",
	KeyCreateNewCV:       "አዲስ CV ፍጠር",
	KeyUpdateProfile:     "መገለጫዬን አዘምን",
	KeyGuideVideo:        "የመመሪያ ቪዲዮ ይመልከቱ",
	KeySamples:           "ናሙና CVዎችን ይመልከቱ",
	KeyFirstName:         "ስምዎ ማን ነው?",
	KeyMiddleName:        "የአባት ስምዎ ማን ነው?",
	KeyLastName:          "የአያት ስምዎ ማን ነው?",
	KeyPhoneNumber:       "ስልክ ቁጥርዎ ስንት ነው?",
	KeyEmailAddress:      "ኢሜይል አድራሻዎ ምንድን ነው?",
	KeyCity:              "የሚኖሩበት ከተማ የት ነው?",
	KeyCountry:           "የሚኖሩበት አገር የት ነው?",
	KeyAddAnother:        "ሌላ ጨምር",
	KeyContinue:          "ቀጥል",
	KeyConfirm:           "አረጋግጥ",
	KeyEdit:              "አስተካክል",
	KeyPaymentReceived:   "እናመሰግናለን! ክፍያዎ እየተረጋገጠ ነው።",
	KeyPaymentVerified:   "ክፍያዎ ተረጋግጧል። CVዎ በመዘጋጀት ላይ ነው!",
	KeyPaymentRejected:   "ክፍያዎ አልተረጋገጠም፦ %s\n\nእንደገና ለመሞከር /payment ይላኩ።",
	KeyNoRejectedPayment: "እንደገና የሚሞከር ውድቅ የሆነ ክፍያ የለዎትም።",
	KeyCancel:            "እሺ፣ ሁሉም ተሰርዟል። እንደገና ለመጀመር /start ይላኩ።",
	KeyError:             "የሆነ ስህተት ተፈጥሯል። እባክዎ እንደገና ይሞክሩ።",
	KeyUnexpectedInput:   "ይቅርታ፣ አልገባኝም። እባክዎ ከላይ ያለውን ጥያቄ ይመልሱ።",
}

// T renders a prompt key in the given language. Missing translations fall
// back to English so a partial catalogue never blocks the conversation.
func T(lang Lang, key Key) string {
	if lang == LangAmharic {
		if s, ok := amharic[key]; ok {
			return s
		}
	}
	return english[key]
}

// Tf renders a prompt key with fmt-style arguments.
func Tf(lang Lang, key Key, args ...any) string {
	return fmt.Sprintf(T(lang, key), args...)
}
