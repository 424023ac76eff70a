package sendloannotification

import (
	"bytes"
	"fmt"
	"text/template"

	"solar-loan-workers/internal/models"
)

// templates holds the copy per loan status. Statuses without an entry are not notified.
var templates = map[models.LoanStatus]models.NotificationTemplate{
	models.StatusSubmitted: {
		Subject: "Your solar loan application {{.LoanID}} has been submitted",
		Body: "Dear {{.Name}},\n\nWe have received your solar loan application {{.LoanID}}. " +
			"We are now verifying your documents and credit history.\n\nSolar Finance Team",
	},
	models.StatusRejected: {
		Subject: "Update on your solar loan application {{.LoanID}}",
		Body: "Dear {{.Name}},\n\nWe are unable to proceed with your solar loan application {{.LoanID}}." +
			"{{if .Reason}}\nReason: {{.Reason}}{{end}}\n\nSolar Finance Team",
		SMS: "Your solar loan application {{.LoanID}} could not be processed. Check your email for details.",
	},
	models.StatusEMICalculated: {
		Subject: "Your solar loan offer for {{.LoanID}} is ready",
		Body: "Dear {{.Name}},\n\nYour solar loan application {{.LoanID}} has been assessed." +
			"{{if .EMI}}\nMonthly EMI: Rs. {{.EMI}}{{end}}" +
			"{{if .Subsidy}}\nEstimated subsidy: Rs. {{.Subsidy}}{{end}}" +
			"\n\nOur team will review the offer shortly.\n\nSolar Finance Team",
		SMS: "Solar loan {{.LoanID}}: your offer is ready{{if .EMI}}, EMI Rs. {{.EMI}}/month{{end}}.",
	},
	models.StatusApproved: {
		Subject: "Your solar loan {{.LoanID}} is approved",
		Body:    "Dear {{.Name}},\n\nYour solar loan {{.LoanID}} has been approved.\n\nSolar Finance Team",
		SMS:     "Solar loan {{.LoanID}} approved.",
	},
	models.StatusDisbursed: {
		Subject: "Your solar loan {{.LoanID}} has been disbursed",
		Body:    "Dear {{.Name}},\n\nThe amount for solar loan {{.LoanID}} has been disbursed.\n\nSolar Finance Team",
	},
}

type templateData struct {
	Name    string
	LoanID  string
	EMI     string
	Subsidy string
	Reason  string
}

func newTemplateData(contact *models.Contact, input *Input) templateData {
	return templateData{
		Name:    contact.FullName,
		LoanID:  input.LoanID,
		EMI:     money(input.EMIAmount),
		Subsidy: money(input.SubsidyAmount),
		Reason:  input.Error,
	}
}

func money(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.2f", *v)
}

func render(name, text string, data templateData) (string, error) {
	t, err := template.New(name).Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template %s: %w", name, err)
	}
	return buf.String(), nil
}
