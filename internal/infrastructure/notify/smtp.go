package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/stephensunny10/ZUVP-AI-Module/internal/core/domain"
)

// SMTPNotifier mails the responsible clerk when a draft lands in the
// review queue. With no recipients configured it is a no-op, so local
// setups run without a mail server.
type SMTPNotifier struct {
	addr   string
	from   string
	to     []string
	auth   smtp.Auth
	logger *slog.Logger

	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

type Options struct {
	// Username/Password enable PLAIN auth against the host in addr.
	Username string
	Password string
}

func NewSMTPNotifier(addr, from string, to []string, logger *slog.Logger) *SMTPNotifier {
	return NewSMTPNotifierWithOptions(addr, from, to, logger, Options{})
}

func NewSMTPNotifierWithOptions(addr, from string, to []string, logger *slog.Logger, options Options) *SMTPNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	var auth smtp.Auth
	if options.Username != "" {
		host := addr
		if i := strings.LastIndex(addr, ":"); i >= 0 {
			host = addr[:i]
		}
		auth = smtp.PlainAuth("", options.Username, options.Password, host)
	}
	return &SMTPNotifier{
		addr:   addr,
		from:   from,
		to:     to,
		auth:   auth,
		logger: logger,
		send:   smtp.SendMail,
	}
}

func (n *SMTPNotifier) NotifyDraftCreated(ctx context.Context, draft *domain.Draft) error {
	if len(n.to) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := buildDraftMail(n.from, n.to, draft)

	errCh := make(chan error, 1)
	go func() {
		errCh <- n.send(n.addr, n.auth, n.from, n.to, msg)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		n.logger.Info("clerk notified", "draft_id", draft.ID, "recipients", len(n.to))
		return nil
	}
}

func buildDraftMail(from string, to []string, draft *domain.Draft) []byte {
	var b strings.Builder
	writeHeader := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	writeHeader("From", from)
	writeHeader("To", strings.Join(to, ", "))
	writeHeader("Subject", "Novy koncept rozhodnuti ZUVP ke kontrole")
	writeHeader("MIME-Version", "1.0")
	writeHeader("Content-Type", "text/plain; charset=utf-8")
	b.WriteString("\r\n")

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\r\n")
	}

	line("Byl vytvoren novy koncept rozhodnuti o zaboru verejneho prostranstvi.")
	line("")
	line("ID konceptu: %s", draft.ID)
	line("Zdrojovy soubor: %s", draft.SourceFilename)
	if draft.Fields.ApplicantName != "" {
		line("Zadatel: %s", draft.Fields.ApplicantName)
	}
	if draft.NeedsReview {
		line("Vyzaduje rucni kontrolu: %s", draft.ReviewReason)
	} else if draft.Fee != nil {
		line("Vymereny poplatek: %d Kc (VS %s)", draft.Fee.TotalCZK, draft.Fee.VariableSymbol)
	}
	line("")
	line("Koncept ceka na schvaleni nebo zamitnuti.")

	return []byte(b.String())
}
