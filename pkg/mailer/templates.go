package mailer

import (
	"fmt"
	"html"
)

const passwordResetSubject = "Password Reset Request"

// PasswordResetEmail builds the message carrying the reset link.
func PasswordResetEmail(to, link string) Message {
	plain := fmt.Sprintf(
		"You are receiving this because you (or someone else) have requested the reset of the password for your account.\n\n"+
			"Please click on the following link, or paste it into your browser, to complete the process:\n\n%s\n\n"+
			"If you did not request this, please ignore this email and your password will remain unchanged.\n",
		link,
	)
	escaped := html.EscapeString(link)
	body := fmt.Sprintf(
		"<p>You are receiving this because you (or someone else) have requested the reset of the password for your account.</p>"+
			"<p>Please click on the following link to complete the process:</p>"+
			"<p><a href=\"%s\">%s</a></p>"+
			"<p>If you did not request this, please ignore this email and your password will remain unchanged.</p>",
		escaped, escaped,
	)
	return Message{
		To:        to,
		Subject:   passwordResetSubject,
		PlainText: plain,
		HTML:      body,
	}
}
