package notify

import (
	"fmt"
	"html"
)

// emailTemplate wraps body in the branded layout shared by every email.
func emailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F4F7F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; }
			.header { background-color: #0B3D2E; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #0B3D2E; line-height: 1.6; }
			.footer { background-color: #F4F7F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; }
			.info-box { background: #E8F5EE; padding: 15px; border-radius: 4px; border-left: 4px solid #21A366; margin: 20px 0; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>FLEXVEST</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				You are receiving this because email notifications are enabled on your FlexVest account.
			</div>
		</div>
	</body>
	</html>
	`, html.EscapeString(title), bodyContent)
}

// renderEmail returns the subject and HTML body for ev.
func renderEmail(ev Event) (subject, body string) {
	msg := fmt.Sprintf(`<p>%s</p>`, html.EscapeString(ev.Message()))

	switch e := ev.(type) {
	case SavingsReminder:
		msg += fmt.Sprintf(`
		<div class="info-box">
			Saved: <strong>%s</strong> of <strong>%s</strong><br>
			Days remaining: <strong>%d</strong>
		</div>`, e.CurrentAmount.StringFixed(2), e.TargetAmount.StringFixed(2), e.DaysRemaining)
	case MaturityAlert:
		msg += fmt.Sprintf(`
		<div class="info-box">
			Principal: <strong>%s</strong><br>
			Rate: <strong>%s%%</strong><br>
			Interest earned: <strong>%s</strong>
		</div>`, e.Amount.StringFixed(2), e.InterestRate.String(), e.AccruedInterest.StringFixed(2))
	case WithdrawalConfirmed:
		if e.TransactionHash != "" {
			msg += fmt.Sprintf(`<div class="info-box">Transaction hash: <code>%s</code></div>`, html.EscapeString(e.TransactionHash))
		}
	}

	return ev.Title(), emailTemplate(ev.Title(), msg)
}
