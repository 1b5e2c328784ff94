package emailsvc

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/Sandorzhang/workbench/core"
)

// consoleService prints emails to stdout; for local development.
type consoleService struct {
	from          mail.Address
	disableOutput bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) *consoleService {
	return &consoleService{from: conf.DefaultFromEmail()}
}

// NewConsoleServiceMock is a quiet consoleService; for tests.
func NewConsoleServiceMock(conf *core.Config) *consoleService {
	return &consoleService{from: conf.DefaultFromEmail(), disableOutput: true}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	if svc.disableOutput {
		return
	}
	for _, msg := range messages {
		if !msg.HasRecipients() || !msg.HasContent() {
			continue
		}
		fmt.Println(strings.Repeat("-", 70))
		fmt.Printf("From: %s\n", svc.from.String())
		fmt.Printf("To: %s\n", addresses(msg.To))
		if len(msg.Cc) > 0 {
			fmt.Printf("Cc: %s\n", addresses(msg.Cc))
		}
		fmt.Printf("Subject: %s\n\n", msg.Subject)
		fmt.Println(msg.Body)
		fmt.Println(strings.Repeat("-", 70))
	}
}

func addresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}
