package mail

import "testing"

func TestMailtoURL(t *testing.T) {
	for _, tc := range []struct {
		desc string
		msg  Message
		want string
	}{
		{
			desc: "full message",
			msg: Message{
				To:      []string{"one@example.org", "two@example.org"},
				Cc:      []string{"cc@example.org"},
				Subject: "Master schedule updated",
				Body:    "See notes\nline two",
			},
			want: "mailto:one@example.org,two@example.org?cc=cc@example.org&" +
				"subject=Master%20schedule%20updated&body=See%20notes%0Aline%20two",
		},
		{
			desc: "no cc",
			msg: Message{
				To:      []string{"one@example.org"},
				Subject: "hi",
			},
			want: "mailto:one@example.org?subject=hi&body=",
		},
		{
			desc: "comma stripped from address",
			msg: Message{
				To:      []string{"Last, First <one@example.org>"},
				Subject: "s",
			},
			want: "mailto:Last%20First%20%3Cone@example.org%3E?subject=s&body=",
		},
	} {
		t.Run(tc.desc, func(t *testing.T) {
			if got := MailtoURL(tc.msg); got != tc.want {
				t.Errorf("MailtoURL() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestEscapeKeepsSafeSet(t *testing.T) {
	if got := escape("a-b_c.d~e/f", ""); got != "a-b_c.d~e/f" {
		t.Errorf("escape() = %q, unreserved characters must pass through", got)
	}
	if got := escape("x y", "@,"); got != "x%20y" {
		t.Errorf("escape() = %q, want %q", got, "x%20y")
	}
}
