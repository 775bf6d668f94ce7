package mail

import (
	"fmt"
	"strconv"

	gomail "github.com/wneessen/go-mail"
)

type Mailer struct {
	host string
	port int
	user string
	pass string
	from string
}

func NewMailer(host, port, user, pass, from string) (*Mailer, error) {
	p, err := strconv.Atoi(port)
	if err != nil {
		return nil, fmt.Errorf("mail: invalid SMTP port %q: %w", port, err)
	}
	return &Mailer{host: host, port: p, user: user, pass: pass, from: from}, nil
}

// SendWelcome mails a freshly created account its temporary password. A nil
// mailer drops the message so account creation still works without SMTP.
func (m *Mailer) SendWelcome(to, tempPassword string) error {
	if m == nil {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("mail: from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mail: to address: %w", err)
	}
	msg.Subject("Your new account")
	msg.SetBodyString(gomail.TypeTextPlain, fmt.Sprintf(
		"Welcome!\n\nYour account has been created and your temporary password is:\n\n%s\n\nPlease log in and change it as soon as possible.\n",
		tempPassword,
	))

	client, err := gomail.NewClient(m.host,
		gomail.WithPort(m.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(m.user),
		gomail.WithPassword(m.pass),
	)
	if err != nil {
		return fmt.Errorf("mail: client: %w", err)
	}
	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}
