package mail

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSender struct {
	sent []string
	err  error
}

func (s *stubSender) Send(to, subject, htmlBody string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, to)
	return nil
}

func TestSendUsesPrimary(t *testing.T) {
	primary := &stubSender{}
	fallback := &stubSender{}
	m := NewMailerWithSenders(primary, fallback, "http://localhost")

	m.SendVerificationEmail("a@b.c", "tok")

	require.Len(t, primary.sent, 1)
	require.Empty(t, fallback.sent)
}

func TestSendFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubSender{err: errors.New("relay down")}
	fallback := &stubSender{}
	m := NewMailerWithSenders(primary, fallback, "http://localhost")

	m.SendPasswordResetEmail("a@b.c", "tok")

	require.Len(t, fallback.sent, 1)
}

func TestSendSwallowsTotalFailure(t *testing.T) {
	primary := &stubSender{err: errors.New("relay down")}
	fallback := &stubSender{err: errors.New("also down")}
	m := NewMailerWithSenders(primary, fallback, "http://localhost")

	// Must not panic or propagate; delivery failures stay internal.
	m.SendVerificationEmail("a@b.c", "tok")
}

func TestSendWithoutSMTPConfigured(t *testing.T) {
	m := NewMailerWithSenders(nil, nil, "http://localhost")
	m.SendFamilyInviteEmail("a@b.c", "smith", "QWERTYUIOP")
}
