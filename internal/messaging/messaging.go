// Package messaging доставляет одноразовые коды пользователю.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// OTPMessage - полезная нагрузка для SMS-шлюза.
type OTPMessage struct {
	Phone     string    `json:"phone"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Dispatcher отправляет код по внешнему каналу.
type Dispatcher interface {
	SendOTP(ctx context.Context, msg OTPMessage) error
}

// LogDispatcher только пишет в лог; используется без NATS (демо-режим).
type LogDispatcher struct {
	log *logrus.Logger
}

func NewLogDispatcher(log *logrus.Logger) *LogDispatcher {
	return &LogDispatcher{log: log}
}

func (d *LogDispatcher) SendOTP(_ context.Context, msg OTPMessage) error {
	d.log.WithFields(logrus.Fields{
		"phone":      MaskPhone(msg.Phone),
		"expires_at": msg.ExpiresAt,
	}).Info("OTP сформирован (канал доставки не настроен)")
	d.log.WithField("code", msg.Code).Debug("OTP код")
	return nil
}

// publisher - часть *nats.Conn, нужная диспетчеру.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATSDispatcher публикует код в subject, который читает SMS-шлюз.
type NATSDispatcher struct {
	pub     publisher
	conn    *nats.Conn
	subject string
}

// NewNATSDispatcher подключается к NATS.
func NewNATSDispatcher(url, subject string) (*NATSDispatcher, error) {
	nc, err := nats.Connect(url,
		nats.Name("company-backend"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("messaging: connect nats: %w", err)
	}
	return &NATSDispatcher{pub: nc, conn: nc, subject: subject}, nil
}

func (d *NATSDispatcher) SendOTP(_ context.Context, msg OTPMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := d.pub.Publish(d.subject, data); err != nil {
		return fmt.Errorf("messaging: publish otp: %w", err)
	}
	return nil
}

// Close дожидается отправки буфера и закрывает соединение.
func (d *NATSDispatcher) Close() {
	if d.conn != nil {
		_ = d.conn.Drain()
	}
}

// MaskPhone оставляет видимыми только последние 4 цифры.
func MaskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	masked := []byte(phone)
	for i := 0; i < len(masked)-4; i++ {
		if masked[i] >= '0' && masked[i] <= '9' {
			masked[i] = '*'
		}
	}
	return string(masked)
}
