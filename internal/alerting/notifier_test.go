package alerting

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestSMTPNotifierSuccess(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotPayload []byte

	notifier := NewSMTPNotifier("mail.example.com", 587, "user", "pass", "alerts@example.com", testLogger())
	notifier.sendMail = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotFrom = from
		gotTo = to
		gotPayload = msg
		return nil
	}

	msg := Message{To: "u1@x.com", Subject: "Stock Alert: AAPL", Text: "body"}
	if err := notifier.Send(context.Background(), msg); err != nil {
		t.Fatalf("Send 应成功: %v", err)
	}

	if gotAddr != "mail.example.com:587" {
		t.Fatalf("addr = %q", gotAddr)
	}
	if gotFrom != "alerts@example.com" {
		t.Fatalf("from = %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "u1@x.com" {
		t.Fatalf("to = %#v", gotTo)
	}

	payload := string(gotPayload)
	if !strings.Contains(payload, "Subject: Stock Alert: AAPL\r\n") {
		t.Fatalf("payload 缺少 Subject 头: %q", payload)
	}
	if !strings.Contains(payload, "\r\n\r\nbody") {
		t.Fatalf("payload 缺少正文: %q", payload)
	}
}

func TestSMTPNotifierSendError(t *testing.T) {
	notifier := NewSMTPNotifier("mail.example.com", 587, "", "", "alerts@example.com", testLogger())
	notifier.sendMail = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		return errors.New("connection refused")
	}

	msg := Message{To: "u1@x.com", Subject: "s", Text: "t"}
	if err := notifier.Send(context.Background(), msg); err == nil {
		t.Fatal("发送失败应报错")
	}
}

func TestSMTPNotifierEmptyRecipient(t *testing.T) {
	notifier := NewSMTPNotifier("mail.example.com", 0, "", "", "alerts@example.com", testLogger())
	if err := notifier.Send(context.Background(), Message{}); err == nil {
		t.Fatal("缺少收件人应报错")
	}
}

func TestSMTPNotifierContextCancelled(t *testing.T) {
	notifier := NewSMTPNotifier("mail.example.com", 587, "", "", "alerts@example.com", testLogger())
	block := make(chan struct{})
	notifier.sendMail = func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
		<-block
		return nil
	}
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := notifier.Send(ctx, Message{To: "u1@x.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("应返回 context.Canceled, 实际 %v", err)
	}
}
