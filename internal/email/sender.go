// Package email envía los correos transaccionales (código de verificación,
// link de reset, alta de cuenta) con plantillas embebidas por idioma.
package email

import (
	"sync"

	"github.com/dropDatabas3/hellousers/internal/observability/logger"
)

// Sender es la interfaz para enviar emails.
// El destinatario recibe html y texto como multipart/alternative.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// LogSender no envía: deja el correo en el log (dev).
type LogSender struct{}

func (LogSender) Send(to, subject, _ string, textBody string) error {
	logger.L().Info("email (log driver)",
		logger.Component("email.log"),
		logger.String("to", to),
		logger.String("subject", subject),
		logger.String("body", textBody),
	)
	return nil
}

// Message correo capturado por Outbox.
type Message struct {
	To, Subject, HTML, Text string
}

// Outbox guarda los correos en memoria (tests).
type Outbox struct {
	mu   sync.Mutex
	msgs []Message
	// Err si no es nil, Send lo devuelve sin guardar.
	Err error
}

func (o *Outbox) Send(to, subject, htmlBody, textBody string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.Err != nil {
		return o.Err
	}
	o.msgs = append(o.msgs, Message{To: to, Subject: subject, HTML: htmlBody, Text: textBody})
	return nil
}

// Messages copia de lo enviado.
func (o *Outbox) Messages() []Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Message(nil), o.msgs...)
}

// Last último correo enviado (zero value si no hubo).
func (o *Outbox) Last() Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.msgs) == 0 {
		return Message{}
	}
	return o.msgs[len(o.msgs)-1]
}
