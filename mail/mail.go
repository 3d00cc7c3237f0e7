// Package mail hands a composed message to the user's mail client via
// a mailto URL. The message is opened for review, never sent directly.
package mail

import (
	"fmt"
	"strings"

	"github.com/pkg/browser"
)

// Message is a composed mail ready to hand off.
type Message struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

// Compose opens the default mail client with the message filled in.
func Compose(msg Message) error {
	return browser.OpenURL(MailtoURL(msg))
}

// MailtoURL builds the mailto form of the message.
func MailtoURL(msg Message) string {
	var b strings.Builder
	b.WriteString("mailto:")
	b.WriteString(escape(joinAddresses(msg.To), "@,"))
	b.WriteString("?")
	if len(msg.Cc) > 0 {
		fmt.Fprintf(&b, "cc=%s&", escape(joinAddresses(msg.Cc), "@,"))
	}
	fmt.Fprintf(&b, "subject=%s&body=%s", escape(msg.Subject, ""), escape(msg.Body, ""))
	return b.String()
}

func joinAddresses(addresses []string) string {
	cleaned := make([]string, 0, len(addresses))
	for _, a := range addresses {
		cleaned = append(cleaned, strings.ReplaceAll(a, ",", ""))
	}
	return strings.TrimSpace(strings.Join(cleaned, ","))
}

// escape percent-encodes everything except unreserved characters and
// the extra safe set. Mail clients are picky about what they accept in
// a mailto URL, so this is stricter than a generic query escape.
func escape(s, safe string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9' ||
		c == '-' || c == '_' || c == '.' || c == '~' || c == '/'
}
