package mail

import "strings"

type smtpEndpoint struct {
	Host string
	Port int
}

// wellKnown maps common provider names to their submission endpoints.
var wellKnown = map[string]smtpEndpoint{
	"gmail":     {Host: "smtp.gmail.com", Port: 587},
	"outlook":   {Host: "smtp.office365.com", Port: 587},
	"hotmail":   {Host: "smtp.office365.com", Port: 587},
	"office365": {Host: "smtp.office365.com", Port: 587},
	"yahoo":     {Host: "smtp.mail.yahoo.com", Port: 465},
	"icloud":    {Host: "smtp.mail.me.com", Port: 587},
	"zoho":      {Host: "smtp.zoho.com", Port: 465},
	"sendgrid":  {Host: "smtp.sendgrid.net", Port: 587},
	"mailgun":   {Host: "smtp.mailgun.org", Port: 587},
	"ses":       {Host: "email-smtp.us-east-1.amazonaws.com", Port: 587},
}

// resolveService returns the endpoint for a named provider, case-insensitively.
func resolveService(name string) (smtpEndpoint, bool) {
	ep, ok := wellKnown[strings.ToLower(strings.TrimSpace(name))]
	return ep, ok
}
