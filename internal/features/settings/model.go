package settings

// Mask is what secrets look like on the way out. Receiving it back on
// update means "keep the stored value".
const Mask = "***MASKED***"

const documentKey = "system"

type Template struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type EmailSettings struct {
	Host           string `json:"host"`
	Port           int    `json:"port" validate:"gte=0,lte=65535"`
	Secure         bool   `json:"secure"`
	User           string `json:"user"`
	Password       string `json:"password"`
	From           string `json:"from" validate:"omitempty,email"`
	FromName       string `json:"fromName"`
	ReplyTo        string `json:"replyTo" validate:"omitempty,email"`
	TimeoutSeconds int    `json:"timeoutSeconds" validate:"gte=0,lte=300"`
}

type NotificationSettings struct {
	Enabled              bool `json:"enabled"`
	ApplicationSubmitted bool `json:"applicationSubmitted"`
	ApplicationApproved  bool `json:"applicationApproved"`
	ApplicationRejected  bool `json:"applicationRejected"`
	MinisterReferral     bool `json:"ministerReferral"`
}

type TemplateSet struct {
	ApplicationSubmitted Template `json:"applicationSubmitted"`
	ApplicationApproved  Template `json:"applicationApproved"`
	ApplicationRejected  Template `json:"applicationRejected"`
	InfoRequested        Template `json:"infoRequested"`
	MinisterReferral     Template `json:"ministerReferral"`
}

type WorkflowSettings struct {
	ReviewerEmails []string `json:"reviewerEmails" validate:"dive,email"`
}

type UploadSettings struct {
	MaxFileSizeMB          int      `json:"maxFileSizeMB" validate:"gte=0"`
	AllowedFileTypes       []string `json:"allowedFileTypes"`
	MaxFilesPerApplication int      `json:"maxFilesPerApplication" validate:"gte=0"`
}

type SecuritySettings struct {
	SessionTimeoutMinutes int `json:"sessionTimeoutMinutes" validate:"gte=0"`
	PasswordMinLength     int `json:"passwordMinLength" validate:"gte=0"`
	MaxLoginAttempts      int `json:"maxLoginAttempts" validate:"gte=0"`
}

type SystemInfo struct {
	SiteName        string `json:"siteName"`
	SiteURL         string `json:"siteUrl"`
	SupportEmail    string `json:"supportEmail" validate:"omitempty,email"`
	MaintenanceMode bool   `json:"maintenanceMode"`
}

type ApplicationSettings struct {
	ExpenseTypes []string `json:"expenseTypes"`
	Currencies   []string `json:"currencies"`
	NumberPrefix string   `json:"numberPrefix"`
}

type LDAPSettings struct {
	Enabled      bool   `json:"enabled"`
	URL          string `json:"url"`
	BindDN       string `json:"bindDn"`
	BindPassword string `json:"bindPassword"`
	BaseDN       string `json:"baseDn"`
	UserFilter   string `json:"userFilter"`
}

// Document is the single process-wide settings document.
type Document struct {
	Email         EmailSettings        `json:"email"`
	Notifications NotificationSettings `json:"notifications"`
	Templates     TemplateSet          `json:"templates"`
	Workflow      WorkflowSettings     `json:"workflow"`
	Upload        UploadSettings       `json:"upload"`
	Security      SecuritySettings     `json:"security"`
	System        SystemInfo           `json:"system"`
	Application   ApplicationSettings  `json:"application"`
	LDAP          LDAPSettings         `json:"ldap"`
}

// Redacted returns a copy safe to hand to API clients.
func (d Document) Redacted() Document {
	if d.Email.Password != "" {
		d.Email.Password = Mask
	}
	if d.LDAP.BindPassword != "" {
		d.LDAP.BindPassword = Mask
	}
	return d
}
