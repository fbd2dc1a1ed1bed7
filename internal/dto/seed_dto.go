package dto

// SeedFile is a complete program definition loaded by the operator CLI.
type SeedFile struct {
	Program        SeedProgram         `yaml:"program"`
	EmailTemplates []SeedEmailTemplate `yaml:"email_templates"`
	Content        []SeedContent       `yaml:"content"`
}

// SeedProgram describes a program with its stages, questions and personas.
type SeedProgram struct {
	Slug               string        `yaml:"slug"`
	Name               string        `yaml:"name"`
	SupportedLanguages []string      `yaml:"supported_languages"`
	LinkExpiryHours    int           `yaml:"link_expiry_hours"`
	MaxAttempts        int           `yaml:"max_attempts"`
	RequireLinkedIn    bool          `yaml:"require_linkedin"`
	Activate           bool          `yaml:"activate"`
	Stages             []SeedStage   `yaml:"stages"`
	Profiles           []SeedProfile `yaml:"profiles"`
}

type SeedStage struct {
	Number           int            `yaml:"number"`
	Name             string         `yaml:"name"`
	PassingThreshold float64        `yaml:"passing_threshold"`
	Weight           float64        `yaml:"weight"`
	TimeLimitMinutes *int           `yaml:"time_limit_minutes"`
	Disabled         bool           `yaml:"disabled"`
	Questions        []SeedQuestion `yaml:"questions"`
}

type SeedQuestion struct {
	Type         string                `yaml:"type"`
	Points       float64               `yaml:"points"`
	Translations []SeedQuestionVariant `yaml:"translations"`
}

type SeedQuestionVariant struct {
	Language      string   `yaml:"language"`
	Text          string   `yaml:"text"`
	Options       []string `yaml:"options"`
	CorrectAnswer string   `yaml:"correct_answer"`
	Explanation   string   `yaml:"explanation"`
}

type SeedProfile struct {
	Name         string               `yaml:"name"`
	Role         string               `yaml:"role"`
	Seniority    string               `yaml:"seniority"`
	CompanyType  string               `yaml:"company_type"`
	Industry     string               `yaml:"industry"`
	Translations []SeedProfileVariant `yaml:"translations"`
}

type SeedProfileVariant struct {
	Language             string `yaml:"language"`
	Bio                  string `yaml:"bio"`
	ChallengeDescription string `yaml:"challenge_description"`
	ObjectionScenario    string `yaml:"objection_scenario"`
}

type SeedEmailTemplate struct {
	Name     string `yaml:"name"`
	Language string `yaml:"language"`
	Subject  string `yaml:"subject"`
	HTMLBody string `yaml:"html_body"`
	TextBody string `yaml:"text_body"`
}

type SeedContent struct {
	Key      string `yaml:"key"`
	Language string `yaml:"language"`
	Content  string `yaml:"content"`
}

// SeedSummary counts what a seed run wrote.
type SeedSummary struct {
	ProgramID uint `json:"program_id"`
	Stages    int  `json:"stages"`
	Questions int  `json:"questions"`
	Profiles  int  `json:"profiles"`
	Templates int  `json:"templates"`
	Content   int  `json:"content"`
	Activated bool `json:"activated"`
}
