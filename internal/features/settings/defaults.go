package settings

import "encoding/json"

func Defaults() Document {
	return Document{
		Email: EmailSettings{
			Host:           "localhost",
			Port:           587,
			From:           "noreply@travel.gov.nr",
			FromName:       "Travel Approvals",
			TimeoutSeconds: 15,
		},
		Notifications: NotificationSettings{
			Enabled:              true,
			ApplicationSubmitted: true,
			ApplicationApproved:  true,
			ApplicationRejected:  true,
			MinisterReferral:     true,
		},
		Templates: TemplateSet{
			ApplicationSubmitted: Template{
				Subject: "New travel application {{application.applicationNumber}}",
				Body:    "<p>A new travel application {{application.applicationNumber}} from {{application.requesterName}} to {{application.destination}} is waiting for review.</p>",
			},
			ApplicationApproved: Template{
				Subject: "Travel application {{application.applicationNumber}} approved",
				Body:    "<p>Dear {{application.requesterName}},</p><p>Your travel application {{application.applicationNumber}} to {{application.destination}} has been approved by {{reviewer.name}}.</p><p>{{note}}</p>",
			},
			ApplicationRejected: Template{
				Subject: "Travel application {{application.applicationNumber}} rejected",
				Body:    "<p>Dear {{application.requesterName}},</p><p>Your travel application {{application.applicationNumber}} has been rejected.</p><p>Reason: {{reason}}</p>",
			},
			InfoRequested: Template{
				Subject: "More information needed for {{application.applicationNumber}}",
				Body:    "<p>Dear {{application.requesterName}},</p><p>{{reviewer.name}} needs more information about your travel application {{application.applicationNumber}}:</p><p>{{note}}</p>",
			},
			MinisterReferral: Template{
				Subject: "Travel application {{application.applicationNumber}} referred for your decision",
				Body:    "<p>Honourable Minister,</p><p>Travel application {{application.applicationNumber}} from {{application.requesterName}} to {{application.destination}} has been referred to you by {{reviewer.name}}.</p>",
			},
		},
		Workflow: WorkflowSettings{
			ReviewerEmails: []string{},
		},
		Upload: UploadSettings{
			MaxFileSizeMB:          10,
			AllowedFileTypes:       []string{".pdf", ".doc", ".docx", ".png", ".jpg", ".jpeg"},
			MaxFilesPerApplication: 10,
		},
		Security: SecuritySettings{
			SessionTimeoutMinutes: 60,
			PasswordMinLength:     8,
			MaxLoginAttempts:      5,
		},
		System: SystemInfo{
			SiteName: "Travel Approval System",
		},
		Application: ApplicationSettings{
			ExpenseTypes: []string{"Airfare", "Accommodation", "Per Diem", "Ground Transport", "Registration", "Other"},
			Currencies:   []string{"AUD", "USD"},
			NumberPrefix: "TR",
		},
		LDAP: LDAPSettings{
			UserFilter: "(uid={{username}})",
		},
	}
}

func defaultJSON() []byte {
	b, err := json.Marshal(Defaults())
	if err != nil {
		panic(err)
	}
	return b
}
